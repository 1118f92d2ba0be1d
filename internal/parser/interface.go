package parser

import "github.com/nguyentantai21042004/procedure-flow/internal/models"

// Parser turns raw model output into draft steps.
type Parser interface {
	// Parse decodes raw. It returns an ErrResponseParse error when no JSON
	// object can be recovered; a decoded object with missing fields is
	// filled with defaults instead.
	Parse(raw string) (Result, error)
}

// Result is the decoded procedure before correlation.
type Result struct {
	Title       string
	Description string
	SafetyNotes []string
	Steps       []models.DraftStep
}
