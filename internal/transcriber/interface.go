package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Transcriber turns the audio track of a video into ordered segments.
// A video without an audio track yields no segments and no error.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) ([]models.TranscriptSegment, error)
}

// Source is a transcription collaborator working on an extracted audio file.
type Source interface {
	Name() string
	// AudioExt is the container the source wants, e.g. ".wav" or ".mp3".
	AudioExt() string
	Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error)
}
