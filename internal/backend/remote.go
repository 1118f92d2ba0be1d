package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
)

// RemoteOptions configures the Gemini API. BaseURL overrides the endpoint.
type RemoteOptions struct {
	Model   string
	APIKeys []string
	BaseURL string
}

type remoteBackend struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
	model      string
	baseURL    string
	logger     logger.Logger
}

// NewRemote creates a Backend that rotates through the supplied Gemini API
// keys when one is rate limited.
func NewRemote(opts RemoteOptions, log logger.Logger) Backend {
	return &remoteBackend{
		apiKeys: opts.APIKeys,
		model:   opts.Model,
		baseURL: opts.BaseURL,
		logger:  log,
	}
}

func (s *remoteBackend) Name() string { return "gemini " + s.model }

func (s *remoteBackend) client(ctx context.Context, key string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if s.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	return genai.NewClient(ctx, cc)
}

// IsAvailable checks that a key is configured and the model can be looked up.
func (s *remoteBackend) IsAvailable(ctx context.Context) bool {
	if len(s.apiKeys) == 0 {
		s.logger.Warn(ctx, "No Gemini API keys configured")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	client, err := s.client(ctx, s.key())
	if err != nil {
		s.logger.Warn(ctx, "Cannot create Gemini client: %v", err)
		return false
	}
	if _, err := client.Models.Get(ctx, s.model, nil); err != nil {
		s.logger.Warn(ctx, "Gemini model %s not reachable: %v", s.model, err)
		return false
	}
	return true
}

// Analyze sends the prompt and frames inline and returns the text answer.
// Rotates API keys on 429 / quota errors.
func (s *remoteBackend) Analyze(ctx context.Context, req Request) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Frames)+1)
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	for _, f := range req.Frames {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return "", fmt.Errorf("read frame: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, "image/jpeg"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.4),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for range len(s.apiKeys) {
		key := s.key()

		client, err := s.client(ctx, key)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey(key)
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, contents, config)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("generate content: %w", ctx.Err())
			}
			if isRateLimited(err) {
				s.logger.Warn(ctx, "Gemini key rate limited, rotating...")
				s.rotateKey(key)
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			return text.String(), nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	if lastErr == nil {
		lastErr = errors.New("no API keys configured")
	}
	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *remoteBackend) key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.apiKeys) == 0 {
		return ""
	}
	return s.apiKeys[s.currentKey]
}

// rotateKey moves past used unless another run already rotated.
func (s *remoteBackend) rotateKey(used string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.apiKeys) == 0 || s.apiKeys[s.currentKey] != used {
		return
	}
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
