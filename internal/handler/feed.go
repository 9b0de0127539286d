package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/rentals/internal/event"
	"github.com/matthewbaird/rentals/internal/eventbus"
	"github.com/matthewbaird/rentals/internal/rental"
	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/types"
)

const feedWriteTimeout = 5 * time.Second

// FeedMessage is one message on the dashboard feed.
type FeedMessage struct {
	Type  string             `json:"type"` // "hello" or "event"
	Role  types.Role         `json:"role,omitempty"`
	Event *event.DomainEvent `json:"event,omitempty"`
}

// FeedHandler pushes domain events to dashboard clients over a websocket so
// they know to refresh.
type FeedHandler struct {
	hub *eventbus.Hub
	svc *rental.Service
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(hub *eventbus.Hub, svc *rental.Service) *FeedHandler {
	return &FeedHandler{hub: hub, svc: svc}
}

// ServeHTTP upgrades to a websocket and streams the events visible to the
// caller until either side closes.
// GET /v1/dashboard/feed
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	visible, err := h.visibility(r.Context(), p)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("feed: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	// The feed is server-to-client only; CloseRead handles control frames
	// and cancels ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())

	if err := h.send(ctx, conn, FeedMessage{Type: "hello", Role: p.Role}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case evt, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if !visible(evt) {
				continue
			}
			if err := h.send(ctx, conn, FeedMessage{Type: "event", Event: &evt}); err != nil {
				log.Printf("feed: write to %s: %v", p.UserID, err)
				return
			}
		}
	}
}

func (h *FeedHandler) send(ctx context.Context, conn *websocket.Conn, msg FeedMessage) error {
	ctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

// visibility returns a predicate for the events p may see. Landlords and
// caretakers see events touching the houses they manage at connect time.
func (h *FeedHandler) visibility(ctx context.Context, p session.Principal) (func(event.DomainEvent) bool, error) {
	switch p.Role {
	case types.RoleAdmin:
		return func(event.DomainEvent) bool { return true }, nil
	case types.RoleTenant:
		return func(e event.DomainEvent) bool { return e.Refers("tenant", p.UserID) }, nil
	}
	houses, err := h.svc.SearchHouses(ctx, p, "", "")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(houses))
	for _, hs := range houses {
		ids[hs.ID] = true
	}
	return func(e event.DomainEvent) bool {
		for _, ref := range e.AffectedEntities {
			if ref.EntityType == "house" && ids[ref.EntityID] {
				return true
			}
		}
		return false
	}, nil
}
