package booking

import "errors"

var (
	// ErrSessionNotFound is returned when the session does not exist or is deleted
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotJoinable is returned when the session is past the scheduled state
	ErrSessionNotJoinable = errors.New("session is not accepting participants")

	// ErrSessionFull is returned when no free slots remain
	ErrSessionFull = errors.New("session is full")

	// ErrAlreadyJoined is returned when the user already holds an active participation
	ErrAlreadyJoined = errors.New("user already joined this session")

	// ErrNotParticipating is returned when no active participation exists
	ErrNotParticipating = errors.New("user is not participating in this session")

	// ErrSessionClosed is returned when leaving a completed session
	ErrSessionClosed = errors.New("session has already completed")

	// ErrConcurrentModification is returned when transactional retries are
	// exhausted; the caller should retry the whole operation
	ErrConcurrentModification = errors.New("operation conflicted with concurrent modifications, retry")

	ErrInternal = errors.New("internal error")
)
