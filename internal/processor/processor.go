package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nguyentantai21042004/procedure-flow/internal/assembler"
	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/metrics"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
	"github.com/nguyentantai21042004/procedure-flow/internal/sampler"
)

// Process orchestrates the pipeline for a file dropped into the input folder
func (p *implProcessor) Process(ctx context.Context, videoPath string) error {
	startTime := time.Now()
	base := filepath.Base(videoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	outputPath := ""
	if p.deps.Renderer != nil {
		outputPath = filepath.Join(p.cfg.Paths.Output, name+p.deps.Renderer.Ext())
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting video processing: %s", videoPath)
	p.logger.Info(ctx, "========================================")

	res, err := p.Run(ctx, Request{VideoPath: videoPath, OutputPath: outputPath})
	if err != nil {
		if ctx.Err() == nil && p.cfg.Paths.Failed != "" {
			if _, merr := p.moveTo(ctx, videoPath, p.cfg.Paths.Failed); merr != nil {
				p.logger.Warn(ctx, "Failed to move video to failed folder: %v", merr)
			}
		}
		return err
	}

	if _, err := p.moveTo(ctx, videoPath, p.cfg.Paths.Archived); err != nil {
		p.logger.Warn(ctx, "Failed to move original to archived folder: %v", err)
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Processing completed successfully!")
	p.logger.Info(ctx, "Procedure: %s (%d steps)", res.Document.Title, len(res.Document.Steps))
	p.logger.Info(ctx, "Output: %s", res.OutputPath)
	p.logger.Info(ctx, "Processing time: %s", time.Since(startTime).Round(time.Millisecond))
	p.logger.Info(ctx, "========================================")

	return nil
}

// Run executes the stages in order. Scratch files are released on every
// exit path, including panics.
func (p *implProcessor) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID)

	sm := newMachine()
	res := &Result{RunID: runID}
	scratch := &registry{}
	m := p.deps.Metrics

	m.RunStarted()
	outcome := metrics.OutcomeFailed
	defer func() {
		scratch.release(ctx, p.logger)
		res.Trace = sm.trace
		m.RunFinished(outcome)
	}()

	fail := func(err error) error {
		stage := sm.fail()
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCancelled
		}
		p.logger.Error(ctx, "Run failed in %s: %v", stage, err)
		return &RunError{Stage: stage, Err: err}
	}

	p.logger.Info(ctx, "Run started for %s (backend %s %s)", req.VideoPath, p.deps.Router.Mode(), p.deps.Router.Name())

	if err := p.deps.Router.CheckAvailable(ctx); err != nil {
		return res, fail(err)
	}

	if err := os.MkdirAll(p.cfg.Paths.Temp, 0755); err != nil {
		return res, fail(fmt.Errorf("create temp dir: %w", err))
	}
	frameDir, err := os.MkdirTemp(p.cfg.Paths.Temp, "frames-")
	if err != nil {
		return res, fail(fmt.Errorf("create frame dir: %w", err))
	}
	scratch.add(frameDir)

	sampled, segments, err := p.ingest(ctx, sm, req.VideoPath, frameDir)
	if err != nil {
		return res, fail(err)
	}
	m.ObserveIngest(len(sampled.Frames), len(segments))

	// Analyzing
	if err := sm.Transition(StateTranscribing, StateAnalyzing); err != nil {
		return res, fail(err)
	}
	raw, err := p.analyze(ctx, sm, res, sampled.Frames, segments, req.ContextHint)
	if err != nil {
		return res, fail(err)
	}

	// Parsing
	if err := sm.Transition(StateAnalyzing, StateParsing); err != nil {
		return res, fail(err)
	}
	stageStart := time.Now()
	parsed, err := p.deps.Parser.Parse(raw)
	m.ObserveStage(string(StateParsing), time.Since(stageStart))
	if err != nil {
		return res, fail(err)
	}
	p.logger.Info(ctx, "Parsed %q with %d steps", parsed.Title, len(parsed.Steps))

	// Correlating
	if err := sm.Transition(StateParsing, StateCorrelating); err != nil {
		return res, fail(err)
	}
	stageStart = time.Now()
	bound, err := p.deps.Correlator.Correlate(parsed.Steps, sampled.Frames)
	m.ObserveStage(string(StateCorrelating), time.Since(stageStart))
	if err != nil {
		return res, fail(err)
	}

	// Assembling
	if err := sm.Transition(StateCorrelating, StateAssembling); err != nil {
		return res, fail(err)
	}
	stageStart = time.Now()
	duration := sampled.Duration
	if duration <= 0 {
		duration = models.Duration(sampled.Frames)
	}
	doc, err := p.deps.Assembler.Assemble(ctx, assembler.Input{
		Title:       parsed.Title,
		Description: parsed.Description,
		Steps:       bound,
		Drafts:      parsed.Steps,
		Frames:      sampled.Frames,
		GlobalNotes: parsed.SafetyNotes,
		Metadata: models.Metadata{
			SourcePath:      req.VideoPath,
			SourceDuration:  duration,
			BackendUsed:     p.deps.Router.Mode(),
			GeneratedAt:     time.Now(),
			FrameCount:      len(sampled.Frames),
			SegmentCount:    len(segments),
			AnalysisRetries: res.Retries,
		},
	})
	if err != nil {
		return res, fail(err)
	}
	if req.OutputPath != "" && p.deps.Renderer != nil {
		if err := p.deps.Renderer.Render(ctx, doc, req.OutputPath); err != nil {
			return res, fail(fmt.Errorf("render document: %w", err))
		}
		res.OutputPath = req.OutputPath
	}
	m.ObserveStage(string(StateAssembling), time.Since(stageStart))

	if err := sm.Transition(StateAssembling, StateDone); err != nil {
		return res, fail(err)
	}

	res.Document = doc
	outcome = metrics.OutcomeSuccess
	p.logger.Info(ctx, "Run finished: %d steps, %d retries", len(doc.Steps), res.Retries)
	return res, nil
}

// ingest samples frames and transcribes audio, concurrently when
// performance.parallel_ingest is set. The machine ends in Transcribing on
// success; on failure it is left in the stage that failed.
func (p *implProcessor) ingest(ctx context.Context, sm *machine, videoPath, frameDir string) (sampler.Result, []models.TranscriptSegment, error) {
	var (
		sampled  sampler.Result
		segments []models.TranscriptSegment
	)

	if err := sm.Transition(StateIdle, StateSampling); err != nil {
		return sampled, nil, err
	}

	sample := func(ctx context.Context) error {
		start := time.Now()
		var err error
		sampled, err = p.deps.Sampler.Sample(ctx, videoPath, frameDir)
		p.deps.Metrics.ObserveStage(string(StateSampling), time.Since(start))
		return err
	}
	transcribe := func(ctx context.Context) error {
		start := time.Now()
		var err error
		segments, err = p.deps.Transcriber.Transcribe(ctx, videoPath)
		p.deps.Metrics.ObserveStage(string(StateTranscribing), time.Since(start))
		return err
	}

	if !p.cfg.Performance.ParallelIngest {
		if err := sample(ctx); err != nil {
			return sampled, nil, err
		}
		p.logger.Info(ctx, "Sampled %d frames", len(sampled.Frames))
		if err := sm.Transition(StateSampling, StateTranscribing); err != nil {
			return sampled, nil, err
		}
		if err := transcribe(ctx); err != nil {
			return sampled, nil, err
		}
		p.logger.Info(ctx, "Transcribed %d segments", len(segments))
		return sampled, segments, nil
	}

	var sampleErr, transcribeErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sampleErr = sample(gctx)
		return sampleErr
	})
	g.Go(func() error {
		transcribeErr = transcribe(gctx)
		return transcribeErr
	})
	firstErr := g.Wait()

	if sampleErr != nil && (transcribeErr == nil || errors.Is(firstErr, sampleErr)) {
		return sampled, nil, sampleErr
	}
	if err := sm.Transition(StateSampling, StateTranscribing); err != nil {
		return sampled, nil, err
	}
	if transcribeErr != nil {
		return sampled, nil, transcribeErr
	}

	p.logger.Info(ctx, "Sampled %d frames and transcribed %d segments in parallel", len(sampled.Frames), len(segments))
	return sampled, segments, nil
}

// analyze calls the router behind the analysis gate. Only timeouts are
// retried, up to analysis.max_retries extra attempts.
func (p *implProcessor) analyze(ctx context.Context, sm *machine, res *Result, frames []models.Frame, segments []models.TranscriptSegment, hint string) (string, error) {
	retries := p.cfg.Retries()
	for attempt := 0; ; attempt++ {
		start := time.Now()
		raw, err := p.analyzeOnce(ctx, frames, segments, hint)
		p.deps.Metrics.ObserveStage(string(StateAnalyzing), time.Since(start))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, models.ErrAnalysisTimeout) || attempt >= retries || ctx.Err() != nil {
			return "", err
		}

		res.Retries++
		p.deps.Metrics.AnalysisRetried()
		p.logger.Warn(ctx, "Analysis timed out, retrying (%d/%d)", attempt+1, retries)
		if err := sm.Transition(StateAnalyzing, StateAnalyzing); err != nil {
			return "", err
		}
	}
}

func (p *implProcessor) analyzeOnce(ctx context.Context, frames []models.Frame, segments []models.TranscriptSegment, hint string) (string, error) {
	var raw string
	err := p.gate.do(ctx, func() error {
		var err error
		raw, err = p.deps.Router.Analyze(ctx, frames, segments, hint)
		return err
	})
	return raw, err
}
