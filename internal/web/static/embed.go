// Package static embeds the kiosk page served at the web root.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist
var distFS embed.FS

// Files returns the embedded dist directory.
func Files() fs.FS {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		// dist is embedded at compile time
		panic(err)
	}
	return fsys
}

// Handler serves the embedded files. The page is tiny and changes with
// every release, so it is never cached.
func Handler() http.Handler {
	files := http.FileServer(http.FS(Files()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}
