package transcriber

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// RemoteOptions configures an OpenAI-compatible transcription endpoint
// (Groq, OpenAI, a local faster-whisper server).
type RemoteOptions struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
}

type remoteSource struct {
	cli      *openai.Client
	model    string
	language string
}

// NewRemote creates a Source calling an OpenAI-compatible audio API.
func NewRemote(opts RemoteOptions) Source {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	return &remoteSource{
		cli:      openai.NewClientWithConfig(clientConfig),
		model:    opts.Model,
		language: opts.Language,
	}
}

func (r *remoteSource) Name() string     { return "remote " + r.model }
func (r *remoteSource) AudioExt() string { return ".mp3" }

// Transcribe uploads the audio and asks for verbose JSON so segment timings
// come back with the text.
func (r *remoteSource) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	resp, err := r.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:       r.model,
		FilePath:    audioPath,
		Format:      openai.AudioResponseFormatVerboseJSON,
		Language:    r.language,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("create transcription: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, models.TranscriptSegment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}

	// Some servers return only the flat text.
	if len(segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		segments = append(segments, models.TranscriptSegment{
			Start: 0,
			End:   resp.Duration,
			Text:  resp.Text,
		})
	}

	return segments, nil
}
