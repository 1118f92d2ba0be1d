package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nguyentantai21042004/procedure-flow/internal/config"
	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/metrics"
	"github.com/nguyentantai21042004/procedure-flow/internal/processor"
	"github.com/nguyentantai21042004/procedure-flow/internal/watcher"
	"github.com/nguyentantai21042004/procedure-flow/pkg/executor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the whole program; it returns the exit code once every deferred
// shutdown has finished.
func run(args []string) int {
	fs := flag.NewFlagSet("procedure-flow", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML config")
	videoPath := fs.String("video", "", "process a single video and exit")
	contextHint := fs.String("context", "", "task context to steer the analysis")
	outputPath := fs.String("o", "", "output file for -video (default: paths.output/<name>.<ext>)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize logger
	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Video to Procedure Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Backend: %s, transcription: %s", cfg.Backend.Mode, cfg.Transcription.Mode)
	log.Info(ctx, "Sampling: every %.1fs, max %d frames", cfg.Sampling.IntervalSeconds, cfg.Sampling.MaxFrames)
	log.Info(ctx, "Analysis: timeout %s, %d retries", cfg.AnalysisTimeout(), cfg.Retries())

	// Verify required directories exist
	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		return 1
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(ctx, cfg.Metrics.Listen, reg, log)
		defer shutdown(srv)
	}

	// Initialize dependencies
	exec := executor.New()
	deps, err := processor.NewDeps(cfg, exec, m, log)
	if err != nil {
		log.Error(ctx, "Failed to initialize pipeline: %v", err)
		return 1
	}
	proc := processor.New(cfg, deps, log)

	if *videoPath != "" {
		return runOnce(ctx, cfg, proc, deps, *videoPath, *contextHint, *outputPath, log)
	}

	if err := watch(ctx, cfg, proc, log); err != nil {
		log.Error(ctx, "Watcher error: %v", err)
		return 1
	}
	return 0
}

// runOnce processes one video and returns the exit code.
func runOnce(ctx context.Context, cfg *config.Config, proc processor.Processor, deps processor.Deps, videoPath, hint, out string, log logger.Logger) int {
	if out == "" {
		base := filepath.Base(videoPath)
		out = filepath.Join(cfg.Paths.Output, strings.TrimSuffix(base, filepath.Ext(base))+deps.Renderer.Ext())
	}

	res, err := proc.Run(ctx, processor.Request{VideoPath: videoPath, ContextHint: hint, OutputPath: out})
	if err != nil {
		var runErr *processor.RunError
		if errors.As(err, &runErr) {
			log.Error(ctx, "Pipeline failed at %s: %v", runErr.Stage, runErr.Err)
		} else {
			log.Error(ctx, "Pipeline failed: %v", err)
		}
		return 1
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Procedure: %s", res.Document.Title)
	log.Info(ctx, "Steps: %d, retries: %d", len(res.Document.Steps), res.Retries)
	log.Info(ctx, "Output: %s", res.OutputPath)
	log.Info(ctx, "========================================")
	return 0
}

func watch(ctx context.Context, cfg *config.Config, proc processor.Processor, log logger.Logger) error {
	// Create watcher with processor as handler and concurrency control
	w, err := watcher.New(cfg.Paths.Input, proc.Process, log, watcher.Options{MaxConcurrent: cfg.Performance.MaxConcurrent})
	if err != nil {
		return err
	}
	defer w.Stop()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Pipeline is ready!")
	log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
	log.Info(ctx, "Output: %s (%s)", cfg.Paths.Output, cfg.Output.Format)
	log.Info(ctx, "Concurrent: %d videos, %d analyses", cfg.Performance.MaxConcurrent, cfg.Performance.MaxConcurrentAnalysis)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info(ctx, "Pipeline stopped")
		return nil
	}
	return err
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info(ctx, "Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "Metrics server error: %v", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Output,
		cfg.Paths.Archived,
		cfg.Paths.Temp,
	}
	if cfg.Paths.Failed != "" {
		dirs = append(dirs, cfg.Paths.Failed)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
