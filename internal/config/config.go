package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

type Config struct {
	Backend       BackendConfig       `yaml:"backend"`
	Sampling      SamplingConfig      `yaml:"sampling"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Ollama        OllamaConfig        `yaml:"ollama"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Whisper       WhisperConfig       `yaml:"whisper"`
	FFmpeg        FFmpegConfig        `yaml:"ffmpeg"`
	Paths         PathsConfig         `yaml:"paths"`
	Output        OutputConfig        `yaml:"output"`
	Logging       LoggingConfig       `yaml:"logging"`
	Performance   PerformanceConfig   `yaml:"performance"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

type BackendConfig struct {
	Mode models.Mode `yaml:"mode"`
}

type SamplingConfig struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	MaxFrames       int     `yaml:"max_frames"`
	ResizeWidth     int     `yaml:"resize_width"`
	JPEGQuality     int     `yaml:"jpeg_quality"`
}

type AnalysisConfig struct {
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	MaxRetries       *int    `yaml:"max_retries"`
	DefaultContext   string  `yaml:"default_context"`
	MaxFrameDistance float64 `yaml:"max_frame_distance"`
}

type OllamaConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type GeminiConfig struct {
	Model   string   `yaml:"model"`
	APIKeys []string `yaml:"api_keys"`
}

type TranscriptionConfig struct {
	Mode     models.Mode `yaml:"mode"`
	BaseURL  string      `yaml:"base_url"`
	Model    string      `yaml:"model"`
	APIKey   string      `yaml:"api_key"`
	Language string      `yaml:"language"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type FFmpegConfig struct {
	Binary      string `yaml:"binary"`
	ProbeBinary string `yaml:"probe_binary"`
}

type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
	Failed   string `yaml:"failed"`
	Temp     string `yaml:"temp"`
}

type OutputConfig struct {
	Format  string `yaml:"format"`
	Company string `yaml:"company"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type PerformanceConfig struct {
	MaxConcurrent         int  `yaml:"max_concurrent"`
	MaxConcurrentAnalysis int  `yaml:"max_concurrent_analysis"`
	ParallelIngest        bool `yaml:"parallel_ingest"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads a YAML config file. ${VAR} references are expanded from the
// environment before decoding so API keys can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects unusable values and fills defaults for the rest.
func (c *Config) Validate() error {
	c.Backend.Mode = models.Mode(strings.ToUpper(string(c.Backend.Mode)))
	if c.Backend.Mode == "" {
		c.Backend.Mode = models.ModeAPI
	}
	if !c.Backend.Mode.Valid() {
		return fmt.Errorf("backend.mode must be LOCAL or API, got %q", c.Backend.Mode)
	}

	c.Transcription.Mode = models.Mode(strings.ToUpper(string(c.Transcription.Mode)))
	if c.Transcription.Mode == "" {
		c.Transcription.Mode = c.Backend.Mode
	}
	if !c.Transcription.Mode.Valid() {
		return fmt.Errorf("transcription.mode must be LOCAL or API, got %q", c.Transcription.Mode)
	}

	if c.Sampling.IntervalSeconds < 0 {
		return fmt.Errorf("sampling.interval_seconds must be positive")
	}
	if c.Sampling.IntervalSeconds == 0 {
		c.Sampling.IntervalSeconds = 2
	}
	if c.Sampling.MaxFrames < 0 {
		return fmt.Errorf("sampling.max_frames must be positive")
	}
	if c.Sampling.MaxFrames == 0 {
		c.Sampling.MaxFrames = 20
	}
	if c.Sampling.ResizeWidth == 0 {
		c.Sampling.ResizeWidth = 512
	}
	if c.Sampling.JPEGQuality == 0 {
		c.Sampling.JPEGQuality = 85
	}
	if c.Sampling.JPEGQuality < 1 || c.Sampling.JPEGQuality > 100 {
		return fmt.Errorf("sampling.jpeg_quality must be within 1..100")
	}

	if c.Analysis.TimeoutSeconds < 0 {
		return fmt.Errorf("analysis.timeout_seconds must be positive")
	}
	if c.Analysis.TimeoutSeconds == 0 {
		c.Analysis.TimeoutSeconds = 300
	}
	if c.Analysis.MaxRetries == nil {
		one := 1
		c.Analysis.MaxRetries = &one
	}
	if *c.Analysis.MaxRetries < 0 {
		return fmt.Errorf("analysis.max_retries must not be negative")
	}
	if c.Analysis.MaxFrameDistance < 0 {
		return fmt.Errorf("analysis.max_frame_distance must not be negative")
	}

	switch c.Backend.Mode {
	case models.ModeLocal:
		if c.Ollama.Host == "" {
			c.Ollama.Host = "http://localhost:11434"
		}
		c.Ollama.Host = strings.TrimRight(c.Ollama.Host, "/")
		if c.Ollama.Model == "" {
			c.Ollama.Model = "llama3.2-vision:11b"
		}
		if c.Ollama.MaxTokens == 0 {
			c.Ollama.MaxTokens = 8192
		}
	case models.ModeAPI:
		if c.Gemini.Model == "" {
			c.Gemini.Model = "gemini-2.5-flash"
		}
		c.Gemini.APIKeys = nonEmpty(c.Gemini.APIKeys)
		if len(c.Gemini.APIKeys) == 0 {
			return fmt.Errorf("gemini.api_keys is required in API mode")
		}
	}

	switch c.Transcription.Mode {
	case models.ModeLocal:
		if c.Whisper.ModelPath == "" {
			return fmt.Errorf("whisper.model_path is required for local transcription")
		}
		if c.Whisper.BinaryPath == "" {
			return fmt.Errorf("whisper.binary_path is required for local transcription")
		}
		if c.Whisper.Language == "" {
			c.Whisper.Language = "auto"
		}
		if c.Whisper.Threads == 0 {
			c.Whisper.Threads = 8
		}
	case models.ModeAPI:
		if c.Transcription.BaseURL == "" {
			c.Transcription.BaseURL = "https://api.groq.com/openai/v1"
		}
		if c.Transcription.Model == "" {
			c.Transcription.Model = "whisper-large-v3"
		}
		if c.Transcription.APIKey == "" {
			return fmt.Errorf("transcription.api_key is required for remote transcription")
		}
	}

	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = "ffmpeg"
	}
	if c.FFmpeg.ProbeBinary == "" {
		c.FFmpeg.ProbeBinary = "ffprobe"
	}

	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}

	c.Output.Format = strings.ToLower(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "docx"
	}
	if c.Output.Format != "docx" && c.Output.Format != "markdown" {
		return fmt.Errorf("output.format must be docx or markdown, got %q", c.Output.Format)
	}
	if c.Output.Company == "" {
		c.Output.Company = "Your Company"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Performance.MaxConcurrentAnalysis == 0 {
		c.Performance.MaxConcurrentAnalysis = 1
	}
	if c.Performance.MaxConcurrent < 0 || c.Performance.MaxConcurrentAnalysis < 0 {
		return fmt.Errorf("performance limits must be positive")
	}

	return nil
}

// AnalysisTimeout is the per-request bound on a backend call.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

// Retries is the number of extra analysis attempts after a timeout.
func (c *Config) Retries() int {
	if c.Analysis.MaxRetries == nil {
		return 1
	}
	return *c.Analysis.MaxRetries
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
