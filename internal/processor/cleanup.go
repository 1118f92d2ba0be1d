package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// registry collects the scratch paths of one run and removes them together.
type registry struct {
	mu    sync.Mutex
	paths []string
}

func (r *registry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// release removes every registered path, newest first. Failures are logged
// as cleanup errors and never returned.
func (r *registry) release(ctx context.Context, log logger.Logger) {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.RemoveAll(paths[i]); err != nil {
			log.Warn(ctx, "%v", models.Wrap(models.ErrCleanup, err, "remove %s", paths[i]))
			continue
		}
		log.Debug(ctx, "Cleaned up: %s", paths[i])
	}
}

// moveTo moves a source video into dir, copying when a rename crosses
// filesystems.
func (p *implProcessor) moveTo(ctx context.Context, videoPath, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	destPath := filepath.Join(dir, filepath.Base(videoPath))

	p.logger.Info(ctx, "Moving %s -> %s", videoPath, destPath)

	if err := os.Rename(videoPath, destPath); err == nil {
		return destPath, nil
	}
	if err := copyFile(videoPath, destPath); err != nil {
		return "", fmt.Errorf("move video: %w", err)
	}
	if err := os.Remove(videoPath); err != nil {
		return "", fmt.Errorf("remove original: %w", err)
	}
	return destPath, nil
}

// copyFile streams src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	return out.Close()
}
