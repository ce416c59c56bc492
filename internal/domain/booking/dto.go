package booking

// LeaveRequest carries the optional reason a participant gives on cancel.
type LeaveRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}
