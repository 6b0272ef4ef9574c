// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The dispatch loop waits for client input for at most a caller-given
// budget. Tests replace the real clock with Fake() so a one-second
// budget can elapse instantly and deterministically:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { done <- server.Dispatch(ctx, time.Second) }()
//	c.WaitForTimers(1)
//	c.Advance(time.Second)
package clock
