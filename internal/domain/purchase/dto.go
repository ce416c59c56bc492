package purchase

// WebhookRequest is the payload the payment collaborator posts after a
// completed credit purchase. Reference is the collaborator's transaction ID
// and makes redelivery idempotent.
type WebhookRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Reference string `json:"reference" validate:"required,max=128"`
}
