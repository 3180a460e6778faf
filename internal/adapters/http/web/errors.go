package web

import "errors"

// Error constants.
var (
	ErrTemplates = errors.New("web templates failed to parse")
	ErrRender    = errors.New("web page render failed")
)
