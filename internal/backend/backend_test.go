package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

type fakeBackend struct {
	available bool
	delay     time.Duration
	answer    string
	err       error
	got       Request
}

func (f *fakeBackend) Name() string                     { return "fake" }
func (f *fakeBackend) IsAvailable(context.Context) bool { return f.available }

func (f *fakeBackend) Analyze(ctx context.Context, req Request) (string, error) {
	f.got = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

func frames(n int) []models.Frame {
	out := make([]models.Frame, n)
	for i := range out {
		out[i] = models.Frame{Index: i, Timestamp: float64(i * 2)}
	}
	return out
}

func TestSubsample(t *testing.T) {
	tests := []struct {
		name string
		n    int
		max  int
		want []int
	}{
		{"under cap", 3, 5, []int{0, 1, 2}},
		{"at cap", 4, 4, []int{0, 1, 2, 3}},
		{"halved", 10, 5, []int{0, 2, 4, 6, 8}},
		{"uneven", 7, 3, []int{0, 2, 4}},
		{"no cap", 6, 0, []int{0, 1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subsample(frames(tt.n), tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("Subsample() len = %d, want %d", len(got), len(tt.want))
			}
			for i, f := range got {
				if f.Index != tt.want[i] {
					t.Errorf("Subsample()[%d] = %d, want %d", i, f.Index, tt.want[i])
				}
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	fs := []models.Frame{{Timestamp: 0}, {Timestamp: 2.5}}

	t.Run("with transcript", func(t *testing.T) {
		p := BuildPrompt(fs, []models.TranscriptSegment{{Start: 0, End: 1.5, Text: "loosen the bolt"}}, "Bike repair")
		for _, want := range []string{"Task Context: Bike repair", "sequence of 2 frames", "Frame 2 at 2.50s", "loosen the bolt", "timestamp_seconds"} {
			if !strings.Contains(p, want) {
				t.Errorf("BuildPrompt() missing %q", want)
			}
		}
	})

	t.Run("without transcript or hint", func(t *testing.T) {
		p := BuildPrompt(fs, nil, "  ")
		if strings.Contains(p, "Audio Transcript") {
			t.Error("BuildPrompt() included transcript section without segments")
		}
		if !strings.Contains(p, fallbackHint) {
			t.Errorf("BuildPrompt() missing fallback hint %q", fallbackHint)
		}
	})
}

func TestRouterAnalyze(t *testing.T) {
	t.Run("bounds frames and uses default hint", func(t *testing.T) {
		fb := &fakeBackend{available: true, answer: "{}"}
		r := NewRouter(models.ModeLocal, fb, RouterOptions{MaxFrames: 4, Timeout: time.Second, DefaultHint: "Lathe setup"}, logger.Nop())

		got, err := r.Analyze(context.Background(), frames(12), nil, "")
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if got != "{}" {
			t.Errorf("Analyze() = %q, want {}", got)
		}
		if len(fb.got.Frames) != 4 {
			t.Errorf("backend received %d frames, want 4", len(fb.got.Frames))
		}
		if !strings.Contains(fb.got.Prompt, "Lathe setup") {
			t.Error("prompt missing default hint")
		}
	})

	t.Run("deadline maps to analysis timeout", func(t *testing.T) {
		fb := &fakeBackend{available: true, delay: time.Second}
		r := NewRouter(models.ModeAPI, fb, RouterOptions{Timeout: 20 * time.Millisecond}, logger.Nop())

		_, err := r.Analyze(context.Background(), frames(2), nil, "x")
		if !errors.Is(err, models.ErrAnalysisTimeout) {
			t.Fatalf("Analyze() error = %v, want ErrAnalysisTimeout", err)
		}
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		fb := &fakeBackend{available: true, delay: time.Second}
		r := NewRouter(models.ModeAPI, fb, RouterOptions{Timeout: time.Minute}, logger.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := r.Analyze(ctx, frames(2), nil, "x")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Analyze() error = %v, want context.Canceled", err)
		}
		if errors.Is(err, models.ErrAnalysisTimeout) {
			t.Error("cancellation reported as timeout")
		}
	})

	t.Run("backend error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		r := NewRouter(models.ModeLocal, &fakeBackend{err: boom}, RouterOptions{}, logger.Nop())
		if _, err := r.Analyze(context.Background(), frames(1), nil, ""); !errors.Is(err, boom) {
			t.Errorf("Analyze() error = %v, want %v", err, boom)
		}
	})
}

func TestRouterCheckAvailable(t *testing.T) {
	r := NewRouter(models.ModeLocal, &fakeBackend{available: false}, RouterOptions{}, logger.Nop())
	if err := r.CheckAvailable(context.Background()); !errors.Is(err, models.ErrBackendUnavailable) {
		t.Errorf("CheckAvailable() error = %v, want ErrBackendUnavailable", err)
	}

	r = NewRouter(models.ModeLocal, &fakeBackend{available: true}, RouterOptions{}, logger.Nop())
	if err := r.CheckAvailable(context.Background()); err != nil {
		t.Errorf("CheckAvailable() error = %v", err)
	}
	if r.Mode() != models.ModeLocal || r.Name() != "fake" {
		t.Errorf("Mode()/Name() = %s/%s", r.Mode(), r.Name())
	}
}

func writeFrames(t *testing.T, n int) []models.Frame {
	t.Helper()
	dir := t.TempDir()
	out := make([]models.Frame, n)
	for i := range out {
		p := filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(p, []byte{0xff, 0xd8, 0xff, 0xd9}, 0644); err != nil {
			t.Fatal(err)
		}
		out[i] = models.Frame{Index: i, Timestamp: float64(i), Path: p}
	}
	return out
}

func TestModelMatches(t *testing.T) {
	tests := []struct {
		want string
		id   string
		ok   bool
	}{
		{"llava:13b", "llava:13b", true},
		{"llava", "llava:13b", true},
		{"llava", "llava:latest", true},
		{"llava:13b", "llava:7b", true},
		{"llava", "llava-phi3:latest", false},
		{"llava", "bakllava:latest", false},
		{"llama3.2-vision:11b", "llama3.2:3b", false},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.id, func(t *testing.T) {
			if got := modelMatches(tt.want, tt.id); got != tt.ok {
				t.Errorf("modelMatches(%q, %q) = %v, want %v", tt.want, tt.id, got, tt.ok)
			}
		})
	}
}

func TestLocalBackend(t *testing.T) {
	var chatBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			w.Write([]byte(`{"object":"list","data":[{"id":"llava:13b","object":"model"}]}`))
		case "/v1/chat/completions":
			json.NewDecoder(r.Body).Decode(&chatBody)
			w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"steps\":[]}"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("available when model prefix matches", func(t *testing.T) {
		b := NewLocal(LocalOptions{Host: srv.URL + "/", Model: "llava"}, logger.Nop())
		if !b.IsAvailable(context.Background()) {
			t.Error("IsAvailable() = false, want true")
		}
	})

	t.Run("unavailable when only a similar name exists", func(t *testing.T) {
		b := NewLocal(LocalOptions{Host: srv.URL, Model: "lla"}, logger.Nop())
		if b.IsAvailable(context.Background()) {
			t.Error("IsAvailable() = true, want false")
		}
	})

	t.Run("unavailable when model missing", func(t *testing.T) {
		b := NewLocal(LocalOptions{Host: srv.URL, Model: "qwen2.5vl:7b"}, logger.Nop())
		if b.IsAvailable(context.Background()) {
			t.Error("IsAvailable() = true, want false")
		}
	})

	t.Run("analyze sends frames as data urls", func(t *testing.T) {
		b := NewLocal(LocalOptions{Host: srv.URL, Model: "llava:13b"}, logger.Nop())
		got, err := b.Analyze(context.Background(), Request{Frames: writeFrames(t, 2), Prompt: "describe"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if got != `{"steps":[]}` {
			t.Errorf("Analyze() = %q", got)
		}
		msgs, _ := chatBody["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("messages = %d, want 1", len(msgs))
		}
		content, _ := msgs[0].(map[string]any)["content"].([]any)
		if len(content) != 3 {
			t.Fatalf("content parts = %d, want 3", len(content))
		}
		img, _ := content[1].(map[string]any)["image_url"].(map[string]any)
		if url, _ := img["url"].(string); !strings.HasPrefix(url, "data:image/jpeg;base64,") {
			t.Errorf("image url = %q", url)
		}
	})

	t.Run("unreachable host is backend unavailable", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		host := dead.URL
		dead.Close()

		b := NewLocal(LocalOptions{Host: host, Model: "llava"}, logger.Nop())
		_, err := b.Analyze(context.Background(), Request{Frames: writeFrames(t, 1), Prompt: "x"})
		if !errors.Is(err, models.ErrBackendUnavailable) {
			t.Errorf("Analyze() error = %v, want ErrBackendUnavailable", err)
		}
	})
}

func TestRemoteBackendRotatesKeys(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-goog-api-key")
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if key == "limited" {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"title\":"},{"text":"\"Oil change\"}"}]}}]}`))
	}))
	defer srv.Close()

	b := NewRemote(RemoteOptions{Model: "gemini-test", APIKeys: []string{"limited", "good"}, BaseURL: srv.URL}, logger.Nop())
	got, err := b.Analyze(context.Background(), Request{Frames: writeFrames(t, 1), Prompt: "describe"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != `{"title":"Oil change"}` {
		t.Errorf("Analyze() = %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 2 || keys[0] != "limited" || keys[1] != "good" {
		t.Errorf("keys used = %v, want [limited good]", keys)
	}
}

func TestRemoteBackendAllKeysExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	b := NewRemote(RemoteOptions{Model: "gemini-test", APIKeys: []string{"a", "b"}, BaseURL: srv.URL}, logger.Nop())
	_, err := b.Analyze(context.Background(), Request{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "all API keys exhausted") {
		t.Errorf("Analyze() error = %v, want exhausted", err)
	}
}

func TestRemoteBackendNoKeys(t *testing.T) {
	b := NewRemote(RemoteOptions{Model: "gemini-test"}, logger.Nop())
	if b.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true with no keys")
	}
}
