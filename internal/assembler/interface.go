package assembler

import (
	"context"

	"github.com/nguyentantai21042004/procedure-flow/internal/models"
)

// Assembler builds the final document from correlated steps.
type Assembler interface {
	Assemble(ctx context.Context, in Input) (*models.ProcedureDocument, error)
}

// Input carries everything a document is built from. Drafts and Frames are
// used for the corrective re-correlation when Steps fail validation.
type Input struct {
	Title       string
	Description string
	Steps       []models.BoundStep
	Drafts      []models.DraftStep
	Frames      []models.Frame
	GlobalNotes []string
	Metadata    models.Metadata
}
