package ledger

import "github.com/google/uuid"

// AdminAdjustRequest represents an administrative balance adjustment
type AdminAdjustRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Delta  int64     `json:"delta" validate:"required"`
	Reason string    `json:"reason" validate:"required,max=500"`
}

// BalanceResponse carries a user's current balance
type BalanceResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance int64     `json:"balance"`
}

// ExportResponse carries the object key of an uploaded ledger export
type ExportResponse struct {
	Key string `json:"key"`
}
