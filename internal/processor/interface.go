package processor

import (
	"context"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Processor turns videos into procedure documents.
type Processor interface {
	// Process runs the pipeline for a file picked up by the watcher, writes
	// the document under the output directory and archives the source.
	Process(ctx context.Context, videoPath string) error
	// Run executes one pipeline run. The returned Result is non-nil even on
	// failure and carries the state trace.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request describes one run. An empty OutputPath skips rendering.
type Request struct {
	VideoPath   string
	ContextHint string
	OutputPath  string
}

// Result is the outcome of a run. Frame paths inside Document point into the
// run's scratch directory, which is removed before Run returns.
type Result struct {
	RunID      string
	Document   *models.ProcedureDocument
	OutputPath string
	Retries    int
	Trace      []State
}
