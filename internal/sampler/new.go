package sampler

import (
	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/pkg/executor"
)

type implSampler struct {
	opts     Options
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Sampler backed by ffprobe and ffmpeg.
func New(opts Options, exec executor.Executor, log logger.Logger) Sampler {
	if opts.IntervalSeconds <= 0 {
		opts.IntervalSeconds = 2
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = 20
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 85
	}
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	return &implSampler{
		opts:     opts,
		executor: exec,
		logger:   log,
	}
}
