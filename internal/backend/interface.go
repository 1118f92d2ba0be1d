package backend

import (
	"context"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Backend is one multimodal analysis provider.
type Backend interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Analyze(ctx context.Context, req Request) (string, error)
}

// Request is a bounded analysis payload. Prompt is already rendered from
// Frames, the transcript and the context hint.
type Request struct {
	Frames []models.Frame
	Prompt string
}

// Router exposes the configured backend behind a single capability.
type Router interface {
	Mode() models.Mode
	Name() string
	IsAvailable(ctx context.Context) bool
	// CheckAvailable returns an ErrBackendUnavailable error when the
	// configured backend cannot be reached.
	CheckAvailable(ctx context.Context) error
	Analyze(ctx context.Context, frames []models.Frame, transcript []models.TranscriptSegment, hint string) (string, error)
}
