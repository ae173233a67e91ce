package replay

import (
	"context"
	"time"
)

// Run dispatches every event of s in order, pausing s.Interval() between
// events, then waits for all of them to be sent. A cancelled ctx stops
// dispatching early.
func Run(ctx context.Context, s *Script, sender Sender, workers int) Stats {
	pool := NewWorkerPool(workers, sender)
	pool.Start(ctx)

	interval := s.Interval()
	for i, ev := range s.Events {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && interval > 0 {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
			}
		}
		if err := pool.Dispatch(ctx, ev); err != nil {
			break
		}
	}
	return pool.Close()
}
