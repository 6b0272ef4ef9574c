// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowStandsStill(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(3 * time.Second)
	if got, want := c.Now(), epoch.Add(3*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeTimerFiresOnlyWhenDue(t *testing.T) {
	c := Fake(epoch)
	timer := c.NewTimer(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-timer.C:
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case fired := <-timer.C:
		if want := epoch.Add(time.Second); !fired.Equal(want) {
			t.Fatalf("fire time = %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestFakeNonPositiveDurationFiresImmediately(t *testing.T) {
	c := Fake(epoch)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-c.After(d):
		default:
			t.Fatalf("After(%v) not ready immediately", d)
		}
	}
	if got := c.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0", got)
	}
}

func TestFakeStop(t *testing.T) {
	c := Fake(epoch)
	timer := c.NewTimer(time.Second)
	if got := c.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1", got)
	}
	if !timer.Stop() {
		t.Fatal("Stop() on a pending timer = false, want true")
	}
	if timer.Stop() {
		t.Fatal("second Stop() = true, want false")
	}
	if got := c.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() after Stop = %d, want 0", got)
	}
	c.Advance(time.Hour)
	select {
	case <-timer.C:
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(epoch)
	result := make(chan time.Time, 1)
	go func() {
		result <- <-c.After(2 * time.Second)
	}()

	c.WaitForTimers(1)
	c.Advance(2 * time.Second)

	select {
	case <-result:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not observe Advance")
	}
	if got := c.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d, want 0", got)
	}
}

func TestFakeAdvanceFiresAllDue(t *testing.T) {
	c := Fake(epoch)
	late := c.NewTimer(3 * time.Second)
	early := c.NewTimer(time.Second)
	c.Advance(5 * time.Second)

	for name, timer := range map[string]*Timer{"late": late, "early": early} {
		select {
		case <-timer.C:
		default:
			t.Fatalf("%s timer did not fire", name)
		}
	}
}

func TestImplementsClock(t *testing.T) {
	var _ Clock = Fake(epoch)
	var _ Clock = Real()
}
