package transcriber

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Transcribe probes for an audio stream, extracts it and runs the source.
func (t *implTranscriber) Transcribe(ctx context.Context, videoPath string) ([]models.TranscriptSegment, error) {
	startTime := time.Now()

	hasAudio, err := t.hasAudio(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	if !hasAudio {
		t.logger.Info(ctx, "No audio stream in %s, continuing without transcript", videoPath)
		return nil, nil
	}

	audioPath, err := t.extractAudio(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer t.cleanupTempFile(ctx, audioPath)

	segments, err := t.source.Transcribe(ctx, audioPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.Wrap(models.ErrTranscription, err, "%s transcription", t.source.Name())
	}

	segments = Normalize(segments)
	t.logger.Info(ctx, "Transcription completed with %s: %d segments in %s",
		t.source.Name(), len(segments), time.Since(startTime).Round(time.Millisecond))
	return segments, nil
}

func (t *implTranscriber) hasAudio(ctx context.Context, videoPath string) (bool, error) {
	out, err := t.executor.Execute(ctx, t.ffprobe,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		videoPath,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, models.Wrap(models.ErrTranscription, err, "probe audio of %s", videoPath)
	}
	return strings.TrimSpace(out) != "", nil
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (t *implTranscriber) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		t.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
