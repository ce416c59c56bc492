package ledger

import "errors"

var (
	// ErrInsufficientCredit is returned when a debit would drive the balance negative
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidKind is returned for an unknown entry kind
	ErrInvalidKind = errors.New("invalid ledger entry kind")

	// ErrDuplicateReference is returned when an entry with the same kind and
	// reference already exists for the user
	ErrDuplicateReference = errors.New("duplicate ledger reference")

	// ErrLedgerDrift is returned when the cached balance projection disagrees
	// with the ledger sum
	ErrLedgerDrift = errors.New("cached balance diverged from ledger sum")

	ErrInternal = errors.New("internal error")
)
