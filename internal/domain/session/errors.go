package session

import "errors"

var (
	ErrNotFound        = errors.New("session not found")
	ErrInvalidSchedule = errors.New("session end must be after start")
	ErrInvalidSlots    = errors.New("total slots must be positive")
	ErrNotCancellable  = errors.New("session can no longer be cancelled")
	ErrInternal        = errors.New("internal error")
)
