package correlator

import "github.com/nguyentantai21042004/procedure-flow/internal/models"

// Correlator binds draft steps to sampled frames.
type Correlator interface {
	// Correlate returns one BoundStep per draft, in draft order. It fails
	// with ErrCorrelation only when frames is empty.
	Correlate(drafts []models.DraftStep, frames []models.Frame) ([]models.BoundStep, error)
	// Relaxed returns a correlator without a distance bound.
	Relaxed() Correlator
}

// Options bounds matching. A zero MaxDistance accepts any frame.
type Options struct {
	MaxDistance float64
}
