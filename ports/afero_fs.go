package ports

import (
	"io"

	"github.com/spf13/afero"
)

// AferoFileSystem adapts an afero.Fs to the minimal FileSystem
// abstraction the Snapshot Codec depends on (spec.md §6). Production
// callers pass afero.NewOsFs(); tests pass afero.NewMemMapFs().
type AferoFileSystem struct {
	FS afero.Fs
}

func NewAferoFileSystem(fs afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{FS: fs}
}

func (a *AferoFileSystem) Exists(path string) bool {
	ok, err := afero.Exists(a.FS, path)
	return err == nil && ok
}

func (a *AferoFileSystem) Create(path string) (io.WriteCloser, error) {
	return a.FS.Create(path)
}

func (a *AferoFileSystem) OpenRead(path string) (io.ReadCloser, error) {
	return a.FS.Open(path)
}
