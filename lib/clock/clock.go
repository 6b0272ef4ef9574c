// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source consulted by the dispatch loop and the
// trace recorder. Production code injects Real(); tests inject Fake()
// and move time explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed. If
	// d <= 0, the channel is ready immediately.
	After(d time.Duration) <-chan time.Time

	// NewTimer returns a one-shot timer firing after d. Callers that
	// may abandon the wait (a dispatch cycle woken by input, for
	// example) should prefer NewTimer over After and Stop the timer,
	// so that a fake clock does not accumulate dead waiters.
	NewTimer(d time.Duration) *Timer
}

// Timer is a cancellable one-shot wait.
type Timer struct {
	// C receives the fire time. Buffered with capacity 1.
	C <-chan time.Time

	stop func() bool
}

// Stop cancels the timer. Returns false if it already fired or was
// stopped.
func (t *Timer) Stop() bool { return t.stop() }
