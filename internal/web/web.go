// Package web embeds the browser frontend served alongside the API. The
// pages are plain HTML with a small script implementing the client-side
// session store and route guard.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// Files returns the embedded frontend rooted at the static directory.
func Files() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
