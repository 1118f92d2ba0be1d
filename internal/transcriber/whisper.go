package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
	"github.com/nguyentantai21042004/procedure-flow/pkg/executor"
)

// WhisperOptions configures a local whisper.cpp binary.
type WhisperOptions struct {
	BinaryPath string
	ModelPath  string
	Language   string
	Prompt     string
	Threads    int
}

type whisperSource struct {
	opts     WhisperOptions
	executor executor.Executor
	logger   logger.Logger
}

// NewWhisper creates a Source running whisper.cpp on the local machine.
func NewWhisper(opts WhisperOptions, exec executor.Executor, log logger.Logger) Source {
	return &whisperSource{opts: opts, executor: exec, logger: log}
}

func (w *whisperSource) Name() string     { return "whisper.cpp" }
func (w *whisperSource) AudioExt() string { return ".wav" }

// Transcribe runs whisper.cpp with SRT output next to the audio file and
// parses the result.
func (w *whisperSource) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	// whisper.cpp appends .srt to the output prefix
	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	srtPath := outputPrefix + ".srt"

	w.logger.Info(ctx, "Starting whisper.cpp with %d threads: %s", w.opts.Threads, audioPath)

	// -ml 0 / -mc 0: no segment length or context limit; -bo 5: best of 5.
	args := []string{
		"-m", w.opts.ModelPath,
		"-f", audioPath,
		"-osrt",
		"-l", w.opts.Language,
		"-t", strconv.Itoa(w.opts.Threads),
		"-ml", "0",
		"-mc", "0",
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if w.opts.Prompt != "" {
		args = append(args, "--prompt", w.opts.Prompt)
	}

	if _, err := w.executor.Execute(ctx, w.opts.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}
	defer func() {
		if err := os.Remove(srtPath); err != nil && !os.IsNotExist(err) {
			w.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", srtPath, err)
		}
	}()

	f, err := os.Open(srtPath)
	if err != nil {
		return nil, fmt.Errorf("open whisper output: %w", err)
	}
	defer f.Close()

	return ParseSRT(f)
}
