package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

const availabilityTimeout = 10 * time.Second

// LocalOptions points at an Ollama server.
type LocalOptions struct {
	Host      string
	Model     string
	MaxTokens int
}

type localBackend struct {
	cli       *openai.Client
	host      string
	model     string
	maxTokens int
	logger    logger.Logger
}

// NewLocal creates a Backend talking to Ollama through its OpenAI-compatible
// /v1 API.
func NewLocal(opts LocalOptions, log logger.Logger) Backend {
	host := strings.TrimRight(opts.Host, "/")
	clientConfig := openai.DefaultConfig("ollama")
	clientConfig.BaseURL = host + "/v1"
	clientConfig.HTTPClient = &http.Client{}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	return &localBackend{
		cli:       openai.NewClientWithConfig(clientConfig),
		host:      host,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		logger:    log,
	}
}

func (l *localBackend) Name() string { return "ollama " + l.model }

// IsAvailable reports whether the server answers and has the model pulled.
func (l *localBackend) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	list, err := l.cli.ListModels(ctx)
	if err != nil {
		l.logger.Warn(ctx, "Cannot reach Ollama at %s: %v", l.host, err)
		return false
	}

	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		if modelMatches(l.model, m.ID) {
			return true
		}
		names = append(names, m.ID)
	}

	l.logger.Warn(ctx, "Model %s not found on %s (available: %v); run: ollama pull %s", l.model, l.host, names, l.model)
	return false
}

// modelMatches accepts the exact name or any tag of the same model, so
// "llava" matches "llava:13b" but not "llava-phi3".
func modelMatches(want, id string) bool {
	base, _, _ := strings.Cut(want, ":")
	return id == want || strings.HasPrefix(id, base+":")
}

// Analyze sends the prompt and every frame as a base64 data URL in one
// user message.
func (l *localBackend) Analyze(ctx context.Context, req Request) (string, error) {
	parts := make([]openai.ChatMessagePart, 0, len(req.Frames)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: req.Prompt,
	})
	for _, f := range req.Frames {
		url, err := dataURL(f.Path)
		if err != nil {
			return "", err
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
		})
	}

	resp, err := l.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		Temperature: 0.4,
		TopP:        0.95,
		MaxTokens:   l.maxTokens,
	})
	if err != nil {
		if isUnreachable(err) {
			return "", models.Wrap(models.ErrBackendUnavailable, err, "ollama at %s", l.host)
		}
		return "", fmt.Errorf("ollama chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return resp.Choices[0].Message.Content, nil
}

func dataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// isUnreachable reports connection-level failures and a missing model,
// both of which mean the configured backend cannot serve requests.
func isUnreachable(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusNotFound {
		return true
	}
	return false
}
