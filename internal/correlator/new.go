package correlator

type implCorrelator struct {
	maxDistance float64
}

// New creates a Correlator.
func New(opts Options) Correlator {
	if opts.MaxDistance < 0 {
		opts.MaxDistance = 0
	}
	return &implCorrelator{maxDistance: opts.MaxDistance}
}

func (c *implCorrelator) Relaxed() Correlator {
	return &implCorrelator{}
}
