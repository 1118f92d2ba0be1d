package sampler

import (
	"context"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Sampler extracts evenly spaced frames from a video into outDir.
type Sampler interface {
	Sample(ctx context.Context, videoPath, outDir string) (Result, error)
}

// Result holds the sampled frames in timestamp order and the probed
// duration of the source.
type Result struct {
	Frames   []models.Frame
	Duration float64
}

// Options controls the sampling schedule and frame size.
type Options struct {
	IntervalSeconds float64
	MaxFrames       int
	ResizeWidth     int
	JPEGQuality     int
	FFmpegBinary    string
	FFprobeBinary   string
}
