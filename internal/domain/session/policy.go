package session

import "time"

// RefundPolicy decides what fraction of a charge is returned on cancellation.
// Full refund earlier than Window before start, InsidePct inside the window,
// nothing once the session has started.
type RefundPolicy struct {
	Window    time.Duration
	InsidePct int // 0..100
}

// RefundPercent returns the refund percentage for a cancellation at now of a
// session starting at startsAt. Pure function of its inputs: the caller
// supplies the clock.
func (p RefundPolicy) RefundPercent(now, startsAt time.Time) int {
	if !now.Before(startsAt) {
		return 0
	}
	if startsAt.Sub(now) >= p.Window {
		return 100
	}
	return p.InsidePct
}

// RefundAmount converts a charge and a percentage into integer credits,
// rounding down. The remainder is forfeited, not carried over.
func RefundAmount(charged int64, pct int) int64 {
	if charged <= 0 || pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return charged
	}
	return charged * int64(pct) / 100
}
