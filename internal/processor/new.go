package processor

import (
	"fmt"

	"github.com/nguyentantai21042004/procedure-flow/internal/assembler"
	"github.com/nguyentantai21042004/procedure-flow/internal/backend"
	"github.com/nguyentantai21042004/procedure-flow/internal/config"
	"github.com/nguyentantai21042004/procedure-flow/internal/correlator"
	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/metrics"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
	"github.com/nguyentantai21042004/procedure-flow/internal/parser"
	"github.com/nguyentantai21042004/procedure-flow/internal/renderer"
	"github.com/nguyentantai21042004/procedure-flow/internal/sampler"
	"github.com/nguyentantai21042004/procedure-flow/internal/transcriber"
	"github.com/nguyentantai21042004/procedure-flow/pkg/executor"
)

// Deps are the stage collaborators of a Processor.
type Deps struct {
	Sampler     sampler.Sampler
	Transcriber transcriber.Transcriber
	Router      backend.Router
	Parser      parser.Parser
	Correlator  correlator.Correlator
	Assembler   assembler.Assembler
	Renderer    renderer.Renderer
	Metrics     *metrics.Metrics
}

type implProcessor struct {
	cfg    *config.Config
	deps   Deps
	gate   gate
	logger logger.Logger
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Deps, log logger.Logger) Processor {
	return &implProcessor{
		cfg:    cfg,
		deps:   deps,
		gate:   newGate(cfg.Performance.MaxConcurrentAnalysis),
		logger: log,
	}
}

// NewDeps builds the collaborators selected by cfg. The backend and the
// transcription source are chosen here once; nothing switches at run time.
func NewDeps(cfg *config.Config, exec executor.Executor, m *metrics.Metrics, log logger.Logger) (Deps, error) {
	var b backend.Backend
	switch cfg.Backend.Mode {
	case models.ModeLocal:
		b = backend.NewLocal(backend.LocalOptions{
			Host:      cfg.Ollama.Host,
			Model:     cfg.Ollama.Model,
			MaxTokens: cfg.Ollama.MaxTokens,
		}, log)
	case models.ModeAPI:
		b = backend.NewRemote(backend.RemoteOptions{
			Model:   cfg.Gemini.Model,
			APIKeys: cfg.Gemini.APIKeys,
		}, log)
	default:
		return Deps{}, fmt.Errorf("unknown backend mode: %s", cfg.Backend.Mode)
	}

	var src transcriber.Source
	switch cfg.Transcription.Mode {
	case models.ModeLocal:
		src = transcriber.NewWhisper(transcriber.WhisperOptions{
			BinaryPath: cfg.Whisper.BinaryPath,
			ModelPath:  cfg.Whisper.ModelPath,
			Language:   cfg.Whisper.Language,
			Prompt:     cfg.Whisper.Prompt,
			Threads:    cfg.Whisper.Threads,
		}, exec, log)
	case models.ModeAPI:
		src = transcriber.NewRemote(transcriber.RemoteOptions{
			BaseURL:  cfg.Transcription.BaseURL,
			APIKey:   cfg.Transcription.APIKey,
			Model:    cfg.Transcription.Model,
			Language: cfg.Transcription.Language,
		})
	default:
		return Deps{}, fmt.Errorf("unknown transcription mode: %s", cfg.Transcription.Mode)
	}

	rend, err := renderer.New(cfg.Output.Format, renderer.Options{Company: cfg.Output.Company}, log)
	if err != nil {
		return Deps{}, err
	}

	corr := correlator.New(correlator.Options{MaxDistance: cfg.Analysis.MaxFrameDistance})

	return Deps{
		Sampler: sampler.New(sampler.Options{
			IntervalSeconds: cfg.Sampling.IntervalSeconds,
			MaxFrames:       cfg.Sampling.MaxFrames,
			ResizeWidth:     cfg.Sampling.ResizeWidth,
			JPEGQuality:     cfg.Sampling.JPEGQuality,
			FFmpegBinary:    cfg.FFmpeg.Binary,
			FFprobeBinary:   cfg.FFmpeg.ProbeBinary,
		}, exec, log),
		Transcriber: transcriber.New(src, transcriber.Options{
			FFmpegBinary:  cfg.FFmpeg.Binary,
			FFprobeBinary: cfg.FFmpeg.ProbeBinary,
			TempDir:       cfg.Paths.Temp,
		}, exec, log),
		Router: backend.NewRouter(cfg.Backend.Mode, b, backend.RouterOptions{
			MaxFrames:   cfg.Sampling.MaxFrames,
			Timeout:     cfg.AnalysisTimeout(),
			DefaultHint: cfg.Analysis.DefaultContext,
		}, log),
		Parser:     parser.New(log),
		Correlator: corr,
		Assembler:  assembler.New(corr, log),
		Renderer:   rend,
		Metrics:    m,
	}, nil
}
