package testutil

import (
	"testing"
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// NextSnapshot ждет следующий снимок из подписки
func NextSnapshot(t *testing.T, ch <-chan model.Snapshot, timeout time.Duration) model.Snapshot {
	t.Helper()

	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return s
	case <-time.After(timeout):
		t.Fatalf("no snapshot within %s", timeout)
	}
	return model.Snapshot{}
}

// WaitForSnapshot читает снимки, пока не придет подходящий
func WaitForSnapshot(t *testing.T, ch <-chan model.Snapshot, timeout time.Duration, match func(model.Snapshot) bool) model.Snapshot {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatal("subscription closed")
			}
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("no matching snapshot within %s", timeout)
			return model.Snapshot{}
		}
	}
}
