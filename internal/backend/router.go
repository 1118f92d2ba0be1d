package backend

import (
	"context"
	"errors"
	"time"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

func (r *implRouter) Mode() models.Mode { return r.mode }
func (r *implRouter) Name() string      { return r.backend.Name() }

func (r *implRouter) IsAvailable(ctx context.Context) bool {
	return r.backend.IsAvailable(ctx)
}

func (r *implRouter) CheckAvailable(ctx context.Context) error {
	if r.backend.IsAvailable(ctx) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return models.Errorf(models.ErrBackendUnavailable, "%s backend %s is not reachable", r.mode, r.backend.Name())
}

// Analyze subsamples frames to the configured cap, renders the prompt and
// calls the backend under the request timeout. It never retries.
func (r *implRouter) Analyze(ctx context.Context, frames []models.Frame, transcript []models.TranscriptSegment, hint string) (string, error) {
	bounded := Subsample(frames, r.opts.MaxFrames)
	if len(bounded) < len(frames) {
		r.logger.Info(ctx, "Subsampled %d frames to %d for %s", len(frames), len(bounded), r.backend.Name())
	}
	if hint == "" {
		hint = r.opts.DefaultHint
	}

	req := Request{
		Frames: bounded,
		Prompt: BuildPrompt(bounded, transcript, hint),
	}

	callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	startTime := time.Now()
	r.logger.Info(ctx, "Analyzing %d frames with %s (timeout %s)", len(bounded), r.backend.Name(), r.opts.Timeout)

	raw, err := r.backend.Analyze(callCtx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return "", models.Wrap(models.ErrAnalysisTimeout, err, "%s did not answer within %s", r.backend.Name(), r.opts.Timeout)
		}
		return "", err
	}

	r.logger.Info(ctx, "Received %d characters from %s in %s", len(raw), r.backend.Name(), time.Since(startTime).Round(time.Millisecond))
	return raw, nil
}

// Subsample picks max frames spread evenly over frames, keeping order.
func Subsample(frames []models.Frame, max int) []models.Frame {
	if max <= 0 || len(frames) <= max {
		return frames
	}
	out := make([]models.Frame, max)
	for i := range out {
		out[i] = frames[i*len(frames)/max]
	}
	return out
}
