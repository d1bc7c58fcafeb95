package api

import (
	"errors"
	"io/fs"
	"net/http"
)

// spaFileSystem serves renderer assets and falls back to index.html for
// paths the renderer routes itself.
type spaFileSystem struct {
	root http.FileSystem
}

// Open opens the named file, or index.html when it does not exist.
func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return s.root.Open("index.html")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
