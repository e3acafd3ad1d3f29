package engine

import (
	"context"
	"time"
)

// Clock abstracts time so the dispatcher's cooldown waits can be simulated
// in tests without real delay.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, in which case it
	// returns the context error.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}
