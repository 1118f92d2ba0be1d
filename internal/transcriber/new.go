package transcriber

import (
	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/pkg/executor"
)

type implTranscriber struct {
	source   Source
	executor executor.Executor
	logger   logger.Logger
	ffmpeg   string
	ffprobe  string
	tempDir  string
}

// Options locates the media tools and the scratch directory for audio files.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	TempDir       string
}

// New creates a Transcriber that extracts audio with ffmpeg and hands it to
// source.
func New(source Source, opts Options, exec executor.Executor, log logger.Logger) Transcriber {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	return &implTranscriber{
		source:   source,
		executor: exec,
		logger:   log,
		ffmpeg:   opts.FFmpegBinary,
		ffprobe:  opts.FFprobeBinary,
		tempDir:  opts.TempDir,
	}
}
