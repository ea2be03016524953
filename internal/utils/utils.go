package utils

import (
	"context"
	"time"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	pause := sleep
	timer := make(chan struct{})
	go func() {
		defer close(timer)
		pause(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer:
		return nil
	}
}
