package service

import (
	"sync"
	"time"

	"kiosk/internal/authcode/models"
)

// failureWindow counts wrong-code submissions per subject over a sliding
// window. Once a subject crosses the limit the coordinator stops reissuing
// replacement codes until the window drains, so a guessing chat account
// cannot walk the 4-digit space by burning retries.
type failureWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	failures map[models.UserID][]time.Time
}

func newFailureWindow(limit int, window time.Duration) *failureWindow {
	return &failureWindow{
		limit:    limit,
		window:   window,
		failures: make(map[models.UserID][]time.Time),
	}
}

// record registers a failure and reports whether the subject is now locked.
func (w *failureWindow) record(userID models.UserID, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.prune(userID, now)
	kept = append(kept, now)
	w.failures[userID] = kept
	return len(kept) >= w.limit
}

// locked reports whether the subject has exhausted its attempts.
func (w *failureWindow) locked(userID models.UserID, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.prune(userID, now)
	w.failures[userID] = kept
	return len(kept) >= w.limit
}

// reset clears a subject's failures after a successful verification.
func (w *failureWindow) reset(userID models.UserID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.failures, userID)
}

// prune drops timestamps older than the window. Callers hold w.mu.
func (w *failureWindow) prune(userID models.UserID, now time.Time) []time.Time {
	cutoff := now.Add(-w.window)
	timestamps := w.failures[userID]
	i := 0
	for ; i < len(timestamps); i++ {
		if timestamps[i].After(cutoff) {
			break
		}
	}
	return timestamps[i:]
}
