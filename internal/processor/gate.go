package processor

import "context"

// gate caps how many analysis calls are in flight across all runs that share
// one processor.
type gate chan struct{}

func newGate(slots int) gate {
	if slots <= 0 {
		slots = 1
	}
	return make(gate, slots)
}

// do runs fn once a slot is free. A cancelled ctx gives up the wait.
func (g gate) do(ctx context.Context, fn func() error) error {
	select {
	case g <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g }()
	return fn()
}
