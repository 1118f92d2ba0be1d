package assembler

import (
	"github.com/nguyentantai21042004/procedure-flow/internal/correlator"
	"github.com/nguyentantai21042004/procedure-flow/internal/logger"
)

const defaultTitle = "Untitled Procedure"

type implAssembler struct {
	correlator correlator.Correlator
	logger     logger.Logger
}

// New creates an Assembler. c supplies the relaxed matching used for the
// corrective pass.
func New(c correlator.Correlator, log logger.Logger) Assembler {
	return &implAssembler{
		correlator: c.Relaxed(),
		logger:     log,
	}
}
