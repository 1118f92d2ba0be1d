package renderer

import (
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
)

const (
	FormatDocx     = "docx"
	FormatMarkdown = "markdown"
)

// New returns the renderer for format.
func New(format string, opts Options, log logger.Logger) (Renderer, error) {
	if strings.TrimSpace(opts.Company) == "" {
		opts.Company = "Your Company"
	}
	switch strings.ToLower(format) {
	case FormatDocx, "":
		return &docxRenderer{opts: opts, logger: log}, nil
	case FormatMarkdown, "md":
		return &markdownRenderer{opts: opts, logger: log}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
