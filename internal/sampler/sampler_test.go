package sampler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

type fakeExecutor struct {
	mu       sync.Mutex
	duration string
	probeErr error
	frame    []byte
	failAt   map[string]bool
	seeks    []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	switch name {
	case "ffprobe":
		if f.probeErr != nil {
			return "", f.probeErr
		}
		return f.duration + "\n", nil
	case "ffmpeg":
		seek := argAfter(args, "-ss")
		f.mu.Lock()
		f.seeks = append(f.seeks, seek)
		f.mu.Unlock()
		if f.failAt[seek] {
			return "", errors.New("ffmpeg exploded")
		}
		return string(f.frame), nil
	}
	return "", fmt.Errorf("unexpected command %s", name)
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func pngFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func videoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "training.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTimestamps(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		interval float64
		max      int
		want     []float64
	}{
		{"nominal under cap", 9, 2, 20, []float64{0, 2, 4, 6, 8}},
		{"exact multiple excludes duration", 8, 2, 20, []float64{0, 2, 4, 6}},
		{"short video", 0.5, 2, 20, []float64{0}},
		{"capped resample", 100, 2, 4, []float64{0, 25, 50, 75}},
		{"count equal to cap", 10, 2, 5, []float64{0, 2, 4, 6, 8}},
		{"zero duration", 0, 2, 20, nil},
		{"zero cap", 10, 2, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Timestamps(tt.duration, tt.interval, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("Timestamps() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Timestamps()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTimestampsProperties(t *testing.T) {
	for _, duration := range []float64{1, 7.3, 59.9, 600, 7200} {
		for _, interval := range []float64{0.5, 1, 2, 10} {
			for _, max := range []int{1, 5, 20} {
				got := Timestamps(duration, interval, max)
				if len(got) == 0 || len(got) > max {
					t.Fatalf("Timestamps(%v, %v, %d) returned %d frames", duration, interval, max, len(got))
				}
				for i, ts := range got {
					if ts < 0 || ts >= duration {
						t.Errorf("timestamp %v outside [0, %v)", ts, duration)
					}
					if i > 0 && ts < got[i-1] {
						t.Errorf("timestamps not non-decreasing: %v", got)
					}
				}
			}
		}
	}
}

func TestSample(t *testing.T) {
	exec := &fakeExecutor{duration: "9.5", frame: pngFrame(t, 1024, 768)}
	s := New(Options{IntervalSeconds: 2, MaxFrames: 20, ResizeWidth: 512}, exec, logger.Nop())

	outDir := t.TempDir()
	res, err := s.Sample(context.Background(), videoFile(t), outDir)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	if res.Duration != 9.5 {
		t.Errorf("Duration = %v, want 9.5", res.Duration)
	}
	if len(res.Frames) != 5 {
		t.Fatalf("got %d frames, want 5", len(res.Frames))
	}
	for i, f := range res.Frames {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
		if f.Timestamp != float64(i*2) {
			t.Errorf("frame %d timestamp = %v", i, f.Timestamp)
		}
		if f.Width != 512 || f.Height != 384 {
			t.Errorf("frame %d size = %dx%d, want 512x384", i, f.Width, f.Height)
		}
		if filepath.Dir(f.Path) != outDir {
			t.Errorf("frame %d written outside outDir: %s", i, f.Path)
		}
		if _, err := os.Stat(f.Path); err != nil {
			t.Errorf("frame %d file missing: %v", i, err)
		}
	}
}

func TestSampleCapsFrames(t *testing.T) {
	exec := &fakeExecutor{duration: "3600", frame: pngFrame(t, 320, 240)}
	s := New(Options{IntervalSeconds: 1, MaxFrames: 20, ResizeWidth: 512}, exec, logger.Nop())

	res, err := s.Sample(context.Background(), videoFile(t), t.TempDir())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(res.Frames) != 20 {
		t.Errorf("got %d frames, want 20", len(res.Frames))
	}
	if res.Frames[0].Width != 320 {
		t.Errorf("narrow frame resized to %d", res.Frames[0].Width)
	}
}

func TestSampleSkipsFailedGrabs(t *testing.T) {
	exec := &fakeExecutor{
		duration: "6",
		frame:    pngFrame(t, 64, 48),
		failAt:   map[string]bool{strconv.FormatFloat(2, 'f', 3, 64): true},
	}
	s := New(Options{IntervalSeconds: 2, MaxFrames: 20}, exec, logger.Nop())

	res, err := s.Sample(context.Background(), videoFile(t), t.TempDir())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(res.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(res.Frames))
	}
	if res.Frames[1].Index != 1 || res.Frames[1].Timestamp != 4 {
		t.Errorf("second frame = %+v, want index 1 at 4s", res.Frames[1])
	}
}

func TestSampleErrors(t *testing.T) {
	tests := []struct {
		name string
		exec *fakeExecutor
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			exec: &fakeExecutor{duration: "10"},
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.mp4") },
		},
		{
			name: "probe failure",
			exec: &fakeExecutor{probeErr: errors.New("invalid data found")},
			path: videoFile,
		},
		{
			name: "unparseable duration",
			exec: &fakeExecutor{duration: "N/A"},
			path: videoFile,
		},
		{
			name: "zero duration",
			exec: &fakeExecutor{duration: "0"},
			path: videoFile,
		},
		{
			name: "no decodable frames",
			exec: &fakeExecutor{duration: "4", frame: []byte("garbage")},
			path: videoFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{}, tt.exec, logger.Nop())
			res, err := s.Sample(context.Background(), tt.path(t), t.TempDir())
			if !errors.Is(err, models.ErrMediaRead) {
				t.Errorf("Sample() error = %v, want ErrMediaRead", err)
			}
			if len(res.Frames) != 0 {
				t.Errorf("Sample() returned %d frames alongside error", len(res.Frames))
			}
		})
	}
}

func TestSampleCancelled(t *testing.T) {
	exec := &fakeExecutor{duration: "10", frame: pngFrame(t, 64, 48)}
	s := New(Options{}, exec, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec.failAt = map[string]bool{"0.000": true}

	_, err := s.Sample(ctx, videoFile(t), t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sample() error = %v, want context.Canceled", err)
	}
}
