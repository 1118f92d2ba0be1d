package transcriber

import (
	"context"
	"os"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// extractAudio writes the audio track as 16kHz mono in the container the
// source asked for. The caller owns the returned file.
func (t *implTranscriber) extractAudio(ctx context.Context, videoPath string) (string, error) {
	f, err := os.CreateTemp(t.tempDir, "audio-*"+t.source.AudioExt())
	if err != nil {
		return "", models.Wrap(models.ErrTranscription, err, "create temp audio file")
	}
	audioPath := f.Name()
	f.Close()

	t.logger.Info(ctx, "Extracting audio: %s", videoPath)

	// -vn: drop video, -ar 16000 -ac 1: 16kHz mono as Whisper expects.
	args := []string{
		"-i", videoPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
	}
	if t.source.AudioExt() == ".mp3" {
		args = append(args, "-c:a", "libmp3lame")
	} else {
		args = append(args, "-c:a", "pcm_s16le")
	}
	args = append(args, "-threads", "0", "-y", audioPath)

	if _, err := t.executor.Execute(ctx, t.ffmpeg, args...); err != nil {
		t.cleanupTempFile(ctx, audioPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", models.Wrap(models.ErrTranscription, err, "extract audio")
	}

	t.logger.Debug(ctx, "Audio extracted: %s", audioPath)
	return audioPath, nil
}
