package renderer

import (
	"context"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Renderer writes a finished document to disk.
type Renderer interface {
	Render(ctx context.Context, doc *models.ProcedureDocument, outPath string) error
	// Ext is the file extension produced, including the dot.
	Ext() string
}

// Options are shared by every format.
type Options struct {
	Company string
}
