// Package leaktest holds goroutine accounting helpers for tests that start
// background workers.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

const (
	settleDelay = 10 * time.Millisecond
	drainDelay  = 50 * time.Millisecond
	pollDelay   = 10 * time.Millisecond
)

// GoroutineChecker records a goroutine baseline and reports growth past it
type GoroutineChecker struct {
	before int
	t      testing.TB
}

// NewGoroutineChecker snapshots the current goroutine count
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()

	runtime.Gosched()
	time.Sleep(settleDelay)

	return &GoroutineChecker{
		before: runtime.NumGoroutine(),
		t:      t,
	}
}

// Check fails the test when more than tolerance goroutines outlived the baseline
func (g *GoroutineChecker) Check(tolerance int) {
	g.t.Helper()

	runtime.Gosched()
	time.Sleep(drainDelay)
	runtime.GC()
	time.Sleep(drainDelay)

	after := runtime.NumGoroutine()
	if leaked := after - g.before; leaked > tolerance {
		g.t.Errorf("Potential goroutine leak: before=%d, after=%d, leaked=%d (tolerance=%d)",
			g.before, after, leaked, tolerance)
	}
}

// CheckNoGoroutineLeak runs fn and requires every goroutine it started to exit
func CheckNoGoroutineLeak(t testing.TB, fn func()) {
	t.Helper()

	checker := NewGoroutineChecker(t)
	fn()
	checker.Check(0)
}

// WaitForGoroutines polls until the goroutine count drops to target or timeout elapses
func WaitForGoroutines(t testing.TB, target int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		if runtime.NumGoroutine() <= target {
			return
		}
		time.Sleep(pollDelay)
	}

	t.Errorf("Timeout waiting for goroutines to complete: current=%d, target=%d",
		runtime.NumGoroutine(), target)
}
