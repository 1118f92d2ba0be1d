package assembler

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

func (a *implAssembler) Assemble(ctx context.Context, in Input) (*models.ProcedureDocument, error) {
	steps := in.Steps
	if err := Validate(steps, in.Frames); err != nil {
		a.logger.Warn(ctx, "Step validation failed (%v), re-correlating with relaxed matching", err)

		relaxed, cerr := a.correlator.Correlate(in.Drafts, in.Frames)
		if cerr != nil {
			return nil, models.Wrap(models.ErrAssembly, cerr, "corrective pass failed")
		}
		if err := Validate(relaxed, in.Frames); err != nil {
			return nil, models.Wrap(models.ErrAssembly, err, "steps still invalid after corrective pass")
		}
		steps = relaxed
	}

	numbered := make([]models.BoundStep, len(steps))
	for i, s := range steps {
		s.Number = i + 1
		numbered[i] = s
	}

	if len(numbered) == 0 {
		a.logger.Warn(ctx, "Assembled an empty procedure")
	}
	a.warnNonMonotonic(ctx, numbered)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultTitle
	}

	return &models.ProcedureDocument{
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Steps:             numbered,
		GlobalSafetyNotes: dedupe(in.GlobalNotes),
		Metadata:          in.Metadata,
	}, nil
}

// Validate checks that every step carries either one of frames or the
// explicit no-evidence marker.
func Validate(steps []models.BoundStep, frames []models.Frame) error {
	known := make(map[int]float64, len(frames))
	for _, f := range frames {
		known[f.Index] = f.Timestamp
	}

	for i, s := range steps {
		switch {
		case s.Frame == nil && !s.NoVisualEvidence:
			return fmt.Errorf("step %d has no frame and no evidence marker", i+1)
		case s.Frame != nil && s.NoVisualEvidence:
			return fmt.Errorf("step %d has both a frame and the no evidence marker", i+1)
		case s.Frame != nil:
			t, ok := known[s.Frame.Index]
			if !ok || t != s.Frame.Timestamp {
				return fmt.Errorf("step %d references frame %d at %.2fs which is not part of this run", i+1, s.Frame.Index, s.Frame.Timestamp)
			}
		}
	}
	return nil
}

// warnNonMonotonic logs steps whose frame comes before the previous step's.
// Narration order is kept.
func (a *implAssembler) warnNonMonotonic(ctx context.Context, steps []models.BoundStep) {
	prev := -1.0
	for _, s := range steps {
		if s.Frame == nil {
			continue
		}
		if s.Frame.Timestamp < prev {
			a.logger.Warn(ctx, "Step %d shows frame at %.2fs, earlier than the previous step (%.2fs)", s.Number, s.Frame.Timestamp, prev)
		}
		prev = s.Frame.Timestamp
	}
}

func dedupe(notes []string) []string {
	out := make([]string, 0, len(notes))
	seen := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
