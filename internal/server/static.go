package server

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// staticHandler serves the built dashboard. Unknown paths get index.html
// so client-side routes survive a reload.
type staticHandler struct {
	files     fs.FS
	index     []byte
	indexTime time.Time
}

// newStaticHandler returns nil when dir is empty.
func newStaticHandler(dir string) (*staticHandler, error) {
	if dir == "" {
		return nil, nil
	}
	return newStaticHandlerFS(os.DirFS(dir))
}

func newStaticHandlerFS(files fs.FS) (*staticHandler, error) {
	index, err := fs.ReadFile(files, "index.html")
	if err != nil {
		return nil, fmt.Errorf("can't open index.html: %w", err)
	}

	h := &staticHandler{files: files, index: index}
	if stat, err := fs.Stat(files, "index.html"); err == nil {
		h.indexTime = stat.ModTime()
	}
	return h, nil
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	file, err := h.files.Open(name)
	if err != nil {
		h.serveIndex(w, r)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		h.serveIndex(w, r)
		return
	}

	content, ok := file.(io.ReadSeeker)
	if !ok {
		h.serveIndex(w, r)
		return
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), content)
}

func (h *staticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeContent(w, r, "index.html", h.indexTime, bytes.NewReader(h.index))
}
