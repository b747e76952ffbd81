/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the commission engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the sales package.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (directory, service, rollup)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Order not found
  - 409: Invalid lifecycle transition
  - 500: Internal errors

  An unresolvable sales code on order creation deliberately maps to a
  soft 422 with a generic message: the product policy is to never leak
  lookup internals to buyers.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Orders     sales.OrderStore
	Agents     sales.AgentStore
	Exclusions sales.ExclusionStore

	Directory *sales.Directory
	Service   *sales.OrderService
	Rollup    *sales.Rollup
	Location  *time.Location

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Stores joins the three storage interfaces a handler needs; the SQLite
// and memory stores both satisfy it.
type Stores interface {
	sales.OrderStore
	sales.AgentStore
	sales.ExclusionStore
}

// NewHandler creates a handler over a combined store in the given
// civil timezone.
func NewHandler(store Stores, loc *time.Location) *Handler {
	dir := sales.NewDirectory(store)
	return &Handler{
		Orders:     store,
		Agents:     store,
		Exclusions: store,
		Directory:  dir,
		Service:    sales.NewOrderService(store, dir),
		Rollup:     sales.NewRollup(store, store, loc),
		Location:   loc,
		Now:        time.Now,
	}
}

// =============================================================================
// AGENT HANDLERS
// =============================================================================

// ListAgents returns the whole directory.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Agents.ListAgents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agents", err)
		return
	}

	dtos := make([]AgentDTO, len(agents))
	for i, a := range agents {
		dtos[i] = toAgentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAgent returns a single agent.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	agent, err := h.Directory.Resolve(r.Context(), code)
	if err != nil {
		if sales.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Agent not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get agent", err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentDTO(agent))
}

// RegisterAgent creates a new agent. The rate is normalized on intake.
func (h *Handler) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req RegisterAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Agent code is required", nil)
		return
	}

	tier := sales.Tier(req.Tier)
	switch tier {
	case sales.TierPrimary, sales.TierSecondary, sales.TierIndependent:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown tier %q", req.Tier), nil)
		return
	}

	rate, err := sales.ParseRate(req.CommissionRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid commission rate", err)
		return
	}

	agent := &sales.SalesAgent{
		Code:           req.Code,
		DisplayName:    req.DisplayName,
		Tier:           tier,
		ParentCode:     req.ParentCode,
		CommissionRate: rate,
		CreatedAt:      h.Now(),
	}
	if err := h.Directory.Register(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAgentDTO(agent))
}

// UpdateAgent updates an agent's rate, parent, or display name. Updates
// never touch already-realized orders; snapshots are frozen.
func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	agent, err := h.Directory.Resolve(r.Context(), code)
	if err != nil {
		if sales.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Agent not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get agent", err)
		return
	}

	var req RegisterAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.DisplayName != "" {
		agent.DisplayName = req.DisplayName
	}
	if req.Tier != "" {
		agent.Tier = sales.Tier(req.Tier)
	}
	if req.ParentCode != "" {
		agent.ParentCode = req.ParentCode
	}
	if req.CommissionRate != "" {
		rate, err := sales.ParseRate(req.CommissionRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid commission rate", err)
			return
		}
		agent.CommissionRate = rate
	}

	if err := h.Directory.Register(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save agent", err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentDTO(agent))
}

// ListAgentOrders returns an agent's own orders. This view is never
// filtered by the exclusion overlay.
func (h *Handler) ListAgentOrders(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	orders, err := h.Orders.ListOrders(r.Context(), sales.OrderFilter{SalesCode: code})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAgentStats returns the per-period rollup for one agent.
// GET /api/agents/{code}/stats?period=today|month|lifetime
func (h *Handler) GetAgentStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	period, ok := parsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown period", nil)
		return
	}

	stats, err := h.Rollup.Compute(r.Context(), code, period, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrder opens an order in pending_payment.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Order ID is required", nil)
		return
	}

	var expiry time.Time
	if req.ExpiryTime != "" {
		var err error
		expiry, err = time.Parse(time.RFC3339, req.ExpiryTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid expiry_time", err)
			return
		}
	}

	order, err := h.Service.Create(r.Context(), req.ID, req.SalesCode,
		decimal.NewFromFloat(req.Amount), expiry, h.Now())
	if err != nil {
		if sales.IsNotFound(err) {
			// Soft condition: never leak lookup internals to buyers.
			writeError(w, http.StatusUnprocessableEntity,
				"Order cannot be placed right now, please wait and retry", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		if sales.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Order not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// ListOrders returns orders, optionally filtered by status or agent.
// GET /api/orders?status=active&sales_code=A100
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := sales.OrderFilter{
		SalesCode: r.URL.Query().Get("sales_code"),
	}
	if st := r.URL.Query().Get("status"); st != "" {
		filter.Statuses = []sales.OrderStatus{sales.OrderStatus(st)}
	}

	orders, err := h.Orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// transitionHandler builds a handler moving an order to a fixed target
// status. Entering confirmed_config realizes commission.
func (h *Handler) transitionHandler(to sales.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		order, result, err := h.Service.Transition(r.Context(), id, to, h.Now())
		if err != nil {
			switch {
			case sales.IsNotFound(err):
				writeError(w, http.StatusNotFound, "Order not found", nil)
			case sales.IsClientError(err):
				writeError(w, http.StatusConflict, "Transition rejected", err)
			default:
				writeError(w, http.StatusInternalServerError, "Transition failed", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, TransitionResponseDTO{
			Order:      toOrderDTO(order),
			Commission: toCommissionResultDTO(result),
		})
	}
}

// =============================================================================
// REMINDER HANDLERS
// =============================================================================

// ListReminders classifies all eligible orders and returns the ones that
// need attention. Classification is pure; nothing is written here.
// GET /api/orders/reminders
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListOrders(r.Context(), sales.OrderFilter{
		Statuses: []sales.OrderStatus{sales.StatusConfirmedConfig, sales.StatusActive},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	now := h.Now()
	var due []ReminderDTO
	for _, o := range orders {
		rem := sales.Classify(o, now, h.Location)
		if rem.Kind == sales.ReminderNone {
			continue
		}
		due = append(due, ReminderDTO{
			Order: toOrderDTO(o),
			Kind:  string(rem.Kind),
			Days:  rem.Days,
		})
	}
	if due == nil {
		due = []ReminderDTO{}
	}
	writeJSON(w, http.StatusOK, due)
}

// AcknowledgeReminder marks an order's reminder as acted on.
func (h *Handler) AcknowledgeReminder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.Service.MarkReminded(r.Context(), id, h.Now())
	if err != nil {
		if sales.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Order not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to acknowledge reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// =============================================================================
// LEADERBOARD + EXCLUSION HANDLERS
// =============================================================================

// GetLeaderboard returns per-agent stats across the directory with the
// exclusion overlay applied. The viewer query parameter identifies the
// requesting agent: an excluded agent still sees their own row.
// GET /api/leaderboard?period=month&viewer=A100
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown period", nil)
		return
	}
	viewer := r.URL.Query().Get("viewer")

	view, err := h.Rollup.Leaderboard(r.Context(), period, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute leaderboard", err)
		return
	}

	entries, err := h.Exclusions.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load exclusions", err)
		return
	}

	filtered := sales.ApplyExclusion(view, sales.NewExclusionSet(entries), viewer)
	dtos := make([]StatsDTO, len(filtered))
	for i, s := range filtered {
		dtos[i] = toStatsDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListExclusions returns active exclusion entries.
func (h *Handler) ListExclusions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Exclusions.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exclusions", err)
		return
	}

	dtos := make([]ExclusionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ExclusionDTO{AgentCode: e.AgentCode, Active: e.Active, Reason: e.Reason}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetExclusion adds an agent to the exclusion list.
func (h *Handler) SetExclusion(w http.ResponseWriter, r *http.Request) {
	var req SetExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AgentCode == "" {
		writeError(w, http.StatusBadRequest, "Agent code is required", nil)
		return
	}

	entry := sales.ExclusionEntry{
		AgentCode: req.AgentCode,
		Active:    true,
		Reason:    req.Reason,
		CreatedAt: h.Now(),
	}
	if err := h.Exclusions.SetExclusion(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save exclusion", err)
		return
	}
	writeJSON(w, http.StatusCreated, ExclusionDTO{
		AgentCode: entry.AgentCode, Active: true, Reason: entry.Reason,
	})
}

// RemoveExclusion deactivates an exclusion entry.
func (h *Handler) RemoveExclusion(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.Exclusions.RemoveExclusion(r.Context(), code); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove exclusion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(s string) (sales.Period, bool) {
	switch sales.Period(s) {
	case sales.PeriodToday, sales.PeriodMonth, sales.PeriodLifetime:
		return sales.Period(s), true
	case "":
		return sales.PeriodLifetime, true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
