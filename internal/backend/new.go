package backend

import (
	"time"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// RouterOptions bounds every analysis request.
type RouterOptions struct {
	MaxFrames   int
	Timeout     time.Duration
	DefaultHint string
}

type implRouter struct {
	mode    models.Mode
	backend Backend
	opts    RouterOptions
	logger  logger.Logger
}

// NewRouter binds the router to one backend for its whole lifetime. The
// mode is recorded for reporting only; there is no runtime fallback.
func NewRouter(mode models.Mode, b Backend, opts RouterOptions, log logger.Logger) Router {
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &implRouter{
		mode:    mode,
		backend: b,
		opts:    opts,
		logger:  log,
	}
}
