package testutil

import (
	"errors"
	"testing"
	"time"
)

func TestAssertHelpers(t *testing.T) {
	AssertNoError(t, nil)
	AssertEqual(t, 42, 42)
	AssertEqual(t, "channel", "channel")
	AssertError(t, errors.New("boom"))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("context should carry a deadline")
	}
	if remaining := time.Until(deadline); remaining > TestTimeout {
		t.Fatalf("deadline too far out: %v", remaining)
	}
}

func TestWaitClosed(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	WaitClosed(t, ch)
}

func TestAssertPanics(t *testing.T) {
	AssertPanics(t, func() { panic("expected") })
}
