package derive

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestThrottler_Do(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottler(100*time.Millisecond, clock.Now)

	var calls []int
	record := func(n int) func() { return func() { calls = append(calls, n) } }

	if !th.Do(record(1)) {
		t.Error("first Do() should run immediately")
	}
	clock.Advance(50 * time.Millisecond)
	if th.Do(record(2)) {
		t.Error("Do() inside the interval should be held")
	}
	if th.Do(record(3)) {
		t.Error("Do() inside the interval should be held")
	}
	clock.Advance(50 * time.Millisecond)
	if !th.Do(record(4)) {
		t.Error("Do() after the interval should run")
	}

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 4 {
		t.Errorf("calls = %v, want [1 4]", calls)
	}
	if th.Flush() {
		t.Error("Flush() after a delivered call should have nothing pending")
	}
}

func TestThrottler_FlushRunsLatestPending(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottler(time.Second, clock.Now)

	var calls []int
	th.Do(func() { calls = append(calls, 1) })
	th.Do(func() { calls = append(calls, 2) })
	th.Do(func() { calls = append(calls, 3) })

	if !th.Flush() {
		t.Fatal("Flush() should run the pending call")
	}
	if th.Flush() {
		t.Error("second Flush() should be a no-op")
	}
	if len(calls) != 2 || calls[1] != 3 {
		t.Errorf("calls = %v, want [1 3]", calls)
	}
}

func TestThrottler_ForceDiscardsPending(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottler(time.Second, clock.Now)

	var calls []int
	th.Do(func() { calls = append(calls, 1) })
	th.Do(func() { calls = append(calls, 2) })
	th.Force(func() { calls = append(calls, 3) })

	if th.Flush() {
		t.Error("Force() should discard the pending call")
	}
	if len(calls) != 2 || calls[1] != 3 {
		t.Errorf("calls = %v, want [1 3]", calls)
	}
}

func TestThrottler_Disabled(t *testing.T) {
	th := NewThrottler(0, nil)
	count := 0
	for i := 0; i < 10; i++ {
		th.Do(func() { count++ })
	}
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}

func TestThrottler_ForceSpacesNextDo(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottler(100*time.Millisecond, clock.Now)

	var calls []int
	th.Do(func() { calls = append(calls, 1) })
	clock.Advance(60 * time.Millisecond)
	th.Force(func() { calls = append(calls, 2) })

	clock.Advance(60 * time.Millisecond)
	if th.Do(func() { calls = append(calls, 3) }) {
		t.Error("Do() within the interval after Force() should be held")
	}
	clock.Advance(40 * time.Millisecond)
	if !th.Do(func() { calls = append(calls, 4) }) {
		t.Error("Do() a full interval after Force() should run")
	}
	if len(calls) != 3 || calls[1] != 2 || calls[2] != 4 {
		t.Errorf("calls = %v, want [1 2 4]", calls)
	}
}

func TestThrottler_FlushSpacesNextDo(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottler(100*time.Millisecond, clock.Now)

	var calls []int
	th.Do(func() { calls = append(calls, 1) })
	clock.Advance(90 * time.Millisecond)
	th.Do(func() { calls = append(calls, 2) })
	if !th.Flush() {
		t.Fatal("Flush() should run the pending call")
	}

	clock.Advance(20 * time.Millisecond)
	if th.Do(func() { calls = append(calls, 3) }) {
		t.Error("Do() shortly after Flush() should be held")
	}
	if len(calls) != 2 || calls[1] != 2 {
		t.Errorf("calls = %v, want [1 2]", calls)
	}
}
