package sampler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Timestamps returns the sampling schedule for a video of the given duration.
// Nominal points are every interval seconds in [0, duration). When there are
// more than max of them, exactly max points spread evenly over the duration
// are returned instead.
func Timestamps(duration, interval float64, max int) []float64 {
	if duration <= 0 || interval <= 0 || max <= 0 {
		return nil
	}

	var nominal []float64
	for i := 0; ; i++ {
		ts := float64(i) * interval
		if ts >= duration {
			break
		}
		nominal = append(nominal, ts)
		if len(nominal) > max {
			break
		}
	}

	if len(nominal) <= max {
		return nominal
	}

	even := make([]float64, max)
	for i := range even {
		even[i] = float64(i) * duration / float64(max)
	}
	return even
}

// Sample probes the video, grabs a frame at each scheduled timestamp and
// writes it as frame_NNNN.jpg into outDir.
func (s *implSampler) Sample(ctx context.Context, videoPath, outDir string) (Result, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return Result{}, models.Wrap(models.ErrMediaRead, err, "open %s", videoPath)
	}

	duration, err := s.probeDuration(ctx, videoPath)
	if err != nil {
		return Result{}, err
	}

	schedule := Timestamps(duration, s.opts.IntervalSeconds, s.opts.MaxFrames)
	s.logger.Info(ctx, "Sampling %d frames from %.2fs video (interval %.2fs, max %d)",
		len(schedule), duration, s.opts.IntervalSeconds, s.opts.MaxFrames)

	frames := make([]models.Frame, 0, len(schedule))
	for _, ts := range schedule {
		frame, err := s.grab(ctx, videoPath, outDir, len(frames), ts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			s.logger.Warn(ctx, "Skipping frame at %.2fs: %v", ts, err)
			continue
		}
		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		return Result{}, models.Errorf(models.ErrMediaRead, "no frames could be extracted from %s", videoPath)
	}

	s.logger.Info(ctx, "Extracted %d frames into %s", len(frames), outDir)
	return Result{Frames: frames, Duration: duration}, nil
}

func (s *implSampler) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	out, err := s.executor.Execute(ctx, s.opts.FFprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, models.Wrap(models.ErrMediaRead, err, "probe %s", videoPath)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, models.Wrap(models.ErrMediaRead, err, "parse duration of %s", videoPath)
	}
	if duration <= 0 {
		return 0, models.Errorf(models.ErrMediaRead, "%s has no duration", videoPath)
	}
	return duration, nil
}

func (s *implSampler) grab(ctx context.Context, videoPath, outDir string, index int, ts float64) (models.Frame, error) {
	// Seeking before -i is fast and accurate enough for sampling.
	out, err := s.executor.Execute(ctx, s.opts.FFmpegBinary,
		"-v", "error",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	if err != nil {
		return models.Frame{}, fmt.Errorf("ffmpeg grab: %w", err)
	}
	if len(out) == 0 {
		return models.Frame{}, fmt.Errorf("ffmpeg produced no output")
	}

	img, err := imaging.Decode(strings.NewReader(out))
	if err != nil {
		return models.Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	if s.opts.ResizeWidth > 0 && img.Bounds().Dx() > s.opts.ResizeWidth {
		img = imaging.Resize(img, s.opts.ResizeWidth, 0, imaging.Lanczos)
	}

	path := filepath.Join(outDir, fmt.Sprintf("frame_%04d.jpg", index))
	if err := imaging.Save(img, path, imaging.JPEGQuality(s.opts.JPEGQuality)); err != nil {
		return models.Frame{}, fmt.Errorf("save frame: %w", err)
	}

	b := img.Bounds()
	return models.Frame{
		Index:     index,
		Timestamp: ts,
		Path:      path,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}
