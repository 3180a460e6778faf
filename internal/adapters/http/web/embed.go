package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// staticFS is the embedded static/ directory.
var staticFS fs.FS = func() fs.FS {
	sub, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return embeddedFiles
	}
	return sub
}()
