/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/commission-engine/sales"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// AgentDTO represents a sales agent in API responses. The commission rate
// is the canonical decimal in [0, 1].
type AgentDTO struct {
	Code           string `json:"code"`
	DisplayName    string `json:"display_name"`
	Tier           string `json:"tier"`
	ParentCode     string `json:"parent_code,omitempty"`
	CommissionRate string `json:"commission_rate"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// RegisterAgentRequest creates or updates an agent. The rate may be a
// percentage ("25") or a fraction ("0.25"); it is normalized on intake.
type RegisterAgentRequest struct {
	Code           string `json:"code"`
	DisplayName    string `json:"display_name"`
	Tier           string `json:"tier"`
	ParentCode     string `json:"parent_code,omitempty"`
	CommissionRate string `json:"commission_rate"`
}

// OrderDTO represents an order in API responses.
type OrderDTO struct {
	ID                     string  `json:"id"`
	SalesCode              string  `json:"sales_code"`
	Amount                 float64 `json:"amount"`
	Status                 string  `json:"status"`
	CommissionRateSnapshot *string `json:"commission_rate_snapshot,omitempty"`
	CommissionAmount       *string `json:"commission_amount,omitempty"`
	PrimaryShareAmount     *string `json:"primary_share_amount,omitempty"`
	PaymentTime            string  `json:"payment_time,omitempty"`
	EffectiveTime          string  `json:"effective_time,omitempty"`
	ExpiryTime             string  `json:"expiry_time,omitempty"`
	IsReminded             bool    `json:"is_reminded"`
	RemindedAt             string  `json:"reminded_at,omitempty"`
	CreatedAt              string  `json:"created_at,omitempty"`
}

// CreateOrderRequest opens an order in pending_payment.
type CreateOrderRequest struct {
	ID         string  `json:"id"`
	SalesCode  string  `json:"sales_code"`
	Amount     float64 `json:"amount"`
	ExpiryTime string  `json:"expiry_time,omitempty"` // ISO timestamp
}

// TransitionResponseDTO is returned by lifecycle transition endpoints.
type TransitionResponseDTO struct {
	Order      OrderDTO             `json:"order"`
	Commission *CommissionResultDTO `json:"commission,omitempty"`
}

// CommissionResultDTO reports a realization outcome.
type CommissionResultDTO struct {
	OrderID            string  `json:"order_id"`
	RateSnapshot       string  `json:"rate_snapshot"`
	CommissionAmount   string  `json:"commission_amount"`
	PrimaryShareAmount *string `json:"primary_share_amount,omitempty"`
	AlreadyRealized    bool    `json:"already_realized"`
}

// ReminderDTO pairs an order with its urgency bucket.
type ReminderDTO struct {
	Order OrderDTO `json:"order"`
	Kind  string   `json:"kind"`
	Days  int      `json:"days"`
}

// StatsDTO is the per-agent rollup for one period.
type StatsDTO struct {
	AgentCode           string `json:"agent_code"`
	Period              string `json:"period"`
	OrderCount          int    `json:"order_count"`
	AmountSum           string `json:"amount_sum"`
	CommissionSum       string `json:"commission_sum"`
	DirectAmountSum     string `json:"direct_amount_sum"`
	DirectCommissionSum string `json:"direct_commission_sum"`
	TeamAmountSum       string `json:"team_amount_sum"`
	TeamCommissionSum   string `json:"team_commission_sum"`
}

// ExclusionDTO represents an exclusion-list entry.
type ExclusionDTO struct {
	AgentCode string `json:"agent_code"`
	Active    bool   `json:"active"`
	Reason    string `json:"reason,omitempty"`
}

// SetExclusionRequest adds an agent to the exclusion list.
type SetExclusionRequest struct {
	AgentCode string `json:"agent_code"`
	Reason    string `json:"reason,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAgentDTO(a *sales.SalesAgent) AgentDTO {
	return AgentDTO{
		Code:           a.Code,
		DisplayName:    a.DisplayName,
		Tier:           string(a.Tier),
		ParentCode:     a.ParentCode,
		CommissionRate: a.CommissionRate.String(),
		CreatedAt:      formatTime(a.CreatedAt),
	}
}

func toOrderDTO(o *sales.Order) OrderDTO {
	amount, _ := o.Amount.Float64()
	dto := OrderDTO{
		ID:            o.ID,
		SalesCode:     o.SalesCode,
		Amount:        amount,
		Status:        string(o.Status),
		PaymentTime:   formatTime(o.PaymentTime),
		EffectiveTime: formatTime(o.EffectiveTime),
		ExpiryTime:    formatTime(o.ExpiryTime),
		IsReminded:    o.IsReminded,
		CreatedAt:     formatTime(o.CreatedAt),
	}
	if o.CommissionRateSnapshot != nil {
		s := o.CommissionRateSnapshot.String()
		dto.CommissionRateSnapshot = &s
	}
	if o.CommissionAmount != nil {
		s := o.CommissionAmount.String()
		dto.CommissionAmount = &s
	}
	if o.PrimaryShareAmount != nil {
		s := o.PrimaryShareAmount.String()
		dto.PrimaryShareAmount = &s
	}
	if o.RemindedAt != nil {
		dto.RemindedAt = formatTime(*o.RemindedAt)
	}
	return dto
}

func toCommissionResultDTO(r *sales.CommissionResult) *CommissionResultDTO {
	if r == nil {
		return nil
	}
	dto := &CommissionResultDTO{
		OrderID:          r.OrderID,
		RateSnapshot:     r.RateSnapshot.String(),
		CommissionAmount: r.CommissionAmount.String(),
		AlreadyRealized:  r.AlreadyRealized,
	}
	if r.PrimaryShareAmount != nil {
		s := r.PrimaryShareAmount.String()
		dto.PrimaryShareAmount = &s
	}
	return dto
}

func toStatsDTO(s *sales.Stats) StatsDTO {
	return StatsDTO{
		AgentCode:           s.AgentCode,
		Period:              string(s.Period),
		OrderCount:          s.OrderCount,
		AmountSum:           s.AmountSum.String(),
		CommissionSum:       s.CommissionSum.String(),
		DirectAmountSum:     s.DirectAmountSum.String(),
		DirectCommissionSum: s.DirectCommissionSum.String(),
		TeamAmountSum:       s.TeamAmountSum.String(),
		TeamCommissionSum:   s.TeamCommissionSum.String(),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
