package session

import "time"

// CreateSessionRequest represents an organizer scheduling a new session
type CreateSessionRequest struct {
	Title           string    `json:"title" validate:"required,min=1,max=200"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          time.Time `json:"ends_at" validate:"required"`
	TotalSlots      int       `json:"total_slots" validate:"required,gt=0,lte=1000"`
	CreditCost      int64     `json:"credit_cost" validate:"gte=0"`
	RefundWindow    string    `json:"refund_window,omitempty"`     // duration, e.g. "24h"; default from config
	RefundInsidePct *int      `json:"refund_inside_pct,omitempty"` // 0..100; default from config
}

// AvailabilityResponse carries the display read of free slots
type AvailabilityResponse struct {
	SessionID      string `json:"session_id"`
	AvailableSlots int    `json:"available_slots"`
}
