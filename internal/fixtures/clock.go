// Package fixtures holds helpers shared by tests.
package fixtures

import (
	"context"
	"time"

	"github.com/tilinna/clock"
)

// NewAdvancingClock attaches a mock clock to ctx that jumps straight to the
// next pending timer, so code that sleeps on the context clock runs without
// waiting in wall time. The returned function stops the clock.
func NewAdvancingClock(ctx context.Context) (context.Context, *clock.Mock, func()) {
	clck := clock.NewMock(time.Unix(1, 0))
	ctx = clock.Context(ctx, clck)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			default:
				if _, d := clck.AddNext(); d == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}
	}()
	return ctx, clck, func() {
		close(done)
	}
}
