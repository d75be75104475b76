package web

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var content embed.FS

// Files exposes the embedded playground page.
func Files() fs.FS {
	return content
}
