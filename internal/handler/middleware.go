package handler

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/matthewbaird/rentals/internal/session"
	"github.com/matthewbaird/rentals/internal/types"
)

// Recovery turns a panic in a handler into a 500 response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic: %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack passes the connection through for websocket upgrades.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Logging logs one line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("http: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

// Authenticate attaches the caller's principal to the request context. With
// a verifier, a Bearer token is required. Without one, the X-Actor and
// X-Role headers are trusted, which is only suitable for local use.
func Authenticate(v *session.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principalFrom(w, r, v)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithPrincipal(r.Context(), p)))
		})
	}
}

func principalFrom(w http.ResponseWriter, r *http.Request, v *session.Verifier) (session.Principal, bool) {
	if v != nil {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			// Browsers cannot set headers on a websocket handshake.
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "bearer token is required")
			return session.Principal{}, false
		}
		p, err := v.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
			return session.Principal{}, false
		}
		return p, true
	}

	actor := r.Header.Get("X-Actor")
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "MISSING_ACTOR", "X-Actor header is required")
		return session.Principal{}, false
	}
	role, err := session.ParseRole(r.Header.Get("X-Role"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_ROLE", err.Error())
		return session.Principal{}, false
	}
	return session.Principal{UserID: actor, Role: role}, true
}

// requireRole returns the request's principal if its role is one of roles.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...types.Role) (session.Principal, bool) {
	p, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
		return session.Principal{}, false
	}
	if len(roles) > 0 && !slices.Contains(roles, p.Role) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "role "+string(p.Role)+" may not perform this operation")
		return session.Principal{}, false
	}
	return p, true
}
