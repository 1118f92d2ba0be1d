package parser

import "github.com/nguyentantai21042004/procedure-flow/internal/logger"

type implParser struct {
	logger logger.Logger
}

// New creates a Parser.
func New(log logger.Logger) Parser {
	return &implParser{logger: log}
}
