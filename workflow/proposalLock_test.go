package workflow

import (
	"errors"
	"testing"
)

func TestHoldLockAround_ReleasesOnlyAfterCommit(t *testing.T) {
	var events []string
	err := holdLockAround(
		func() error { events = append(events, "acquire"); return nil },
		func() error { events = append(events, "commit"); return nil },
		func() { events = append(events, "release") },
	)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"acquire", "commit", "release"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestHoldLockAround_ReleasesOnFnError(t *testing.T) {
	released := false
	fnErr := errors.New("deadlock")
	err := holdLockAround(
		func() error { return nil },
		func() error { return fnErr },
		func() { released = true },
	)
	if !errors.Is(err, fnErr) {
		t.Fatalf("err = %v, want fn error", err)
	}
	if !released {
		t.Fatal("lock not released after fn error")
	}
}

func TestHoldLockAround_AcquireFailureSkipsFnAndRelease(t *testing.T) {
	acquireErr := errors.New("lock timeout")
	ran := false
	released := false
	err := holdLockAround(
		func() error { return acquireErr },
		func() error { ran = true; return nil },
		func() { released = true },
	)
	if !errors.Is(err, acquireErr) {
		t.Fatalf("err = %v, want acquire error", err)
	}
	if ran {
		t.Fatal("fn ran without the lock")
	}
	if released {
		t.Fatal("released a lock that was never acquired")
	}
}
