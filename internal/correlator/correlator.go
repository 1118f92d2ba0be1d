package correlator

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

func (c *implCorrelator) Correlate(drafts []models.DraftStep, frames []models.Frame) ([]models.BoundStep, error) {
	if len(frames) == 0 {
		return nil, models.Errorf(models.ErrCorrelation, "no frames to bind %d steps to", len(drafts))
	}

	sorted := slices.Clone(frames)
	slices.SortStableFunc(sorted, func(a, b models.Frame) int {
		if n := cmp.Compare(a.Timestamp, b.Timestamp); n != 0 {
			return n
		}
		return cmp.Compare(a.Index, b.Index)
	})

	first := sorted[0].Timestamp
	last := sorted[len(sorted)-1].Timestamp

	bound := make([]models.BoundStep, len(drafts))
	for i, d := range drafts {
		target := Interpolate(first, last, i, len(drafts))
		if d.ApproxTimestamp != nil {
			target = *d.ApproxTimestamp
		}

		bound[i] = models.BoundStep{DraftStep: d}
		f := &sorted[Nearest(sorted, target)]
		if c.maxDistance > 0 && math.Abs(f.Timestamp-target) > c.maxDistance {
			bound[i].NoVisualEvidence = true
			continue
		}
		bound[i].Frame = f
	}
	return bound, nil
}

// Interpolate spreads position i of n evenly over [first, last].
func Interpolate(first, last float64, i, n int) float64 {
	if n <= 1 {
		return first
	}
	return first + (last-first)*float64(i)/float64(n-1)
}

// Nearest returns the index in sorted (ascending by timestamp) of the frame
// closest to t. Equal distances resolve to the earlier frame.
func Nearest(sorted []models.Frame, t float64) int {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].Timestamp >= t })
	switch {
	case i == 0:
		return 0
	case i == len(sorted):
		return len(sorted) - 1
	}
	before := t - sorted[i-1].Timestamp
	after := sorted[i].Timestamp - t
	if after < before {
		return i
	}
	// first frame carrying the earlier timestamp
	j := i - 1
	for j > 0 && sorted[j-1].Timestamp == sorted[j].Timestamp {
		j--
	}
	return j
}
