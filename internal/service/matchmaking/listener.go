package matchmaking

import "context"

// Starter turns a formed match into a live session. Implemented by the
// realtime coordinator.
type Starter interface {
	StartMatch(match Match)
}

// Listen drains the match channel until ctx is cancelled. Run it on its
// own goroutine; pairing happens inside the queue, so this loop only has
// to hand each match to the coordinator.
func Listen(ctx context.Context, q *Queue, starter Starter) {
	for {
		select {
		case <-ctx.Done():
			return
		case match := <-q.Matches():
			starter.StartMatch(match)
		}
	}
}
