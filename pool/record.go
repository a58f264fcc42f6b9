package pool

import "time"

// connectionRecord wraps one Resource with its checkout state. A record is
// either idle or held by exactly one caller - never both, never shared.
type connectionRecord struct {
	resource   Resource
	inUse      bool
	lastUsedAt time.Time
	createdAt  time.Time
}

// acquireResult is the single message a waiter ever receives.
type acquireResult struct {
	resource Resource
	err      error
}

// waiter is one suspended Acquire call. The channel is buffered so the
// fulfilling side never blocks; a waiter is removed from the queue before
// anything is sent, making fulfillment, timeout and close mutually
// exclusive outcomes.
type waiter struct {
	result chan acquireResult
}

func newWaiter() *waiter {
	return &waiter{result: make(chan acquireResult, 1)}
}
