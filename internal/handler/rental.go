package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/rentals/internal/billing"
	"github.com/matthewbaird/rentals/internal/rental"
	"github.com/matthewbaird/rentals/internal/types"
)

var (
	staff    = []types.Role{types.RoleAdmin, types.RoleLandlord, types.RoleCaretaker}
	managers = []types.Role{types.RoleAdmin, types.RoleLandlord}
)

// RentalHandler implements the dashboard, search, billing and payment
// endpoints on top of rental.Service.
type RentalHandler struct {
	svc *rental.Service
}

// NewRentalHandler creates a new RentalHandler.
func NewRentalHandler(svc *rental.Service) *RentalHandler {
	return &RentalHandler{svc: svc}
}

// GetDashboard returns the caller's role dashboard.
// GET /v1/dashboard
func (h *RentalHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	v, err := h.svc.Dashboard(r.Context(), p)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":      v.Role(),
		"dashboard": v,
	})
}

// GetRevenue returns the trailing monthly revenue series.
// GET /v1/dashboard/revenue?months=N
func (h *RentalHandler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r, staff...)
	if !ok {
		return
	}
	months, ok := queryInt(r, "months", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "months must be an integer")
		return
	}
	series, err := h.svc.Revenue(r.Context(), p, months)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": series})
}

// ListHouses searches the caller's houses.
// GET /v1/houses?q=&status=
func (h *RentalHandler) ListHouses(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	houses, err := h.svc.SearchHouses(r.Context(), p, q.Get("q"), q.Get("status"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"houses": houses, "total": len(houses)})
}

// ListTenants searches the caller's tenants.
// GET /v1/tenants?q=&status=
func (h *RentalHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tenants, err := h.svc.SearchTenants(r.Context(), p, q.Get("q"), q.Get("status"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants, "total": len(tenants)})
}

// ListPayments searches the caller's payments.
// GET /v1/payments?q=&status=
func (h *RentalHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	payments, err := h.svc.SearchPayments(r.Context(), p, q.Get("q"), q.Get("status"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments, "total": len(payments)})
}

type createPaymentRequest struct {
	rental.NewPayment
	// Amount is a major-unit decimal string ("250.50"). It takes precedence
	// over amount_cents when set.
	Amount string `json:"amount,omitempty"`
}

// CreatePayment records a payment. Tenants may only submit pending payments
// for themselves.
// POST /v1/payments
func (h *RentalHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	if req.Amount != "" {
		m, err := types.ParseMoney(req.Amount, h.svc.Config().Currency)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		req.AmountCents = m.AmountCents
	}
	if p.Role == types.RoleTenant {
		if req.TenantID == "" {
			req.TenantID = p.UserID
		}
		if req.TenantID != p.UserID || (req.Status != "" && req.Status != types.PaymentPending) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "tenants may only submit pending payments for themselves")
			return
		}
	}

	res, err := h.svc.RecordPayment(r.Context(), req.NewPayment)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// VerifyPayment completes a pending payment and applies it.
// POST /v1/payments/{id}/verify
func (h *RentalHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.paymentAction(w, r, staff, h.svc.VerifyPayment)
}

// FailPayment marks a pending payment as failed.
// POST /v1/payments/{id}/fail
func (h *RentalHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	h.paymentAction(w, r, staff, h.svc.FailPayment)
}

// RetryPayment returns a failed payment to pending.
// POST /v1/payments/{id}/retry
func (h *RentalHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	h.paymentAction(w, r, staff, h.svc.RetryPayment)
}

// ReversePayment undoes a completed payment's effect on balances.
// POST /v1/payments/{id}/reverse
func (h *RentalHandler) ReversePayment(w http.ResponseWriter, r *http.Request) {
	h.paymentAction(w, r, managers, h.svc.ReversePayment)
}

func (h *RentalHandler) paymentAction(w http.ResponseWriter, r *http.Request, roles []types.Role, action func(ctx context.Context, id string) (rental.PaymentResult, error)) {
	if _, ok := requireRole(w, r, roles...); !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "payment id is required")
		return
	}
	res, err := action(r.Context(), id)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type readingRequest struct {
	Reading int64  `json:"reading"`
	Month   string `json:"month,omitempty"`
}

// RecordReading records a water meter reading and issues the bill.
// POST /v1/houses/{id}/readings
func (h *RentalHandler) RecordReading(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, staff...); !ok {
		return
	}
	var req readingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	bill, err := h.svc.RecordReading(r.Context(), chi.URLParam(r, "id"), req.Reading, req.Month)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

type accrueRequest struct {
	Month string `json:"month,omitempty"`
}

// AccrueRent adds a month's rent to every occupant's balance.
// POST /v1/billing/accrue
func (h *RentalHandler) AccrueRent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, managers...); !ok {
		return
	}
	var req accrueRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
			return
		}
	}
	tenants, err := h.svc.AccrueRent(r.Context(), req.Month)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants, "total": len(tenants)})
}

// MarkOverdue flags pending water bills past their due date.
// POST /v1/billing/overdue
func (h *RentalHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, staff...); !ok {
		return
	}
	bills, err := h.svc.MarkOverdueBills(r.Context())
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"water_bills": bills, "total": len(bills)})
}

type quoteRequest struct {
	PreviousReading int64 `json:"previous_reading"`
	NewReading      int64 `json:"new_reading"`
	FixedRentCents  int64 `json:"fixed_rent_cents"`
}

type quoteResponse struct {
	billing.Bill
	UnitPriceCents int64       `json:"unit_price_cents"`
	Total          types.Money `json:"total"`
}

// QuoteBill prices a reading without recording anything.
// POST /v1/bills/quote
func (h *RentalHandler) QuoteBill(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r); !ok {
		return
	}
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}
	bill, err := h.svc.QuoteBill(req.PreviousReading, req.NewReading, req.FixedRentCents)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	cfg := h.svc.Config()
	writeJSON(w, http.StatusOK, quoteResponse{
		Bill:           bill,
		UnitPriceCents: cfg.WaterUnitPriceCents,
		Total:          types.NewMoney(bill.TotalAmountCents, cfg.Currency),
	})
}

// ListReminders returns the rent and water reminders in effect now.
// GET /v1/reminders
func (h *RentalHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	p, ok := requireRole(w, r)
	if !ok {
		return
	}
	reminders, err := h.svc.Reminders(r.Context(), p)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders, "total": len(reminders)})
}
