package static

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/indigo-web/httpd/config"
	"github.com/indigo-web/httpd/http/mime"
	"github.com/indigo-web/httpd/http/status"
	"github.com/patrickmn/go-cache"
)

// File is a resolved regular file.
type File struct {
	Path string
	Size int64
	// Type is the bare MIME type, without any parameters.
	Type mime.MIME
}

// IsText reports whether the charset must be appended to the Content-Type.
func (f File) IsText() bool {
	return mime.IsText(f.Type)
}

// Resolver maps request paths onto the files under the document root. It's safe for
// concurrent use.
type Resolver struct {
	root        string
	serverRoot  string
	index       []string
	defaultType mime.MIME
	errorDocs   []config.ErrorDocument
	// cache is nil if disabled
	cache *cache.Cache
}

func New(cfg *config.Config) (*Resolver, error) {
	root, err := filepath.Abs(cfg.DocumentRoot)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}

	r := &Resolver{
		root:        root,
		serverRoot:  cfg.ServerRoot,
		index:       cfg.DirectoryIndex,
		defaultType: cfg.DefaultType,
		errorDocs:   cfg.ErrorDocuments,
	}

	if cfg.ResolveCacheTTL > 0 {
		r.cache = cache.New(cfg.ResolveCacheTTL, 2*cfg.ResolveCacheTTL)
	}

	return r, nil
}

// Root returns the absolute document root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the file the path points to. Directories are resolved to the first
// existing directory index file. status.ErrNotFound is returned if there's no such
// file, or the path leads outside the document root. Any other error is a fault of
// the file system.
func (r *Resolver) Resolve(resourcePath string) (File, error) {
	if r.cache != nil {
		if cached, found := r.cache.Get(resourcePath); found {
			return cached.(File), nil
		}
	}

	file, err := r.resolve(resourcePath)
	if err == nil && r.cache != nil {
		r.cache.SetDefault(resourcePath, file)
	}

	return file, err
}

// Open resolves the path and opens the file for reading. The returned File describes
// what was actually opened, so its size is up to date even if the resolution was cached.
// The errors are the same as of Resolve.
func (r *Resolver) Open(resourcePath string) (*os.File, File, error) {
	file, err := r.Resolve(resourcePath)
	if err != nil {
		return nil, File{}, err
	}

	fd, file, err := OpenFile(file)
	if err != nil && r.cache != nil && errors.Is(err, status.ErrNotFound) {
		r.cache.Delete(resourcePath)
	}

	return fd, file, err
}

// OpenFile opens the resolved file for reading and refreshes its size. status.ErrNotFound
// is returned if it's gone or isn't a regular file anymore.
func OpenFile(file File) (*os.File, File, error) {
	fd, err := os.Open(file.Path)
	if err != nil {
		return nil, File{}, statError(err)
	}

	info, err := fd.Stat()
	if err != nil {
		_ = fd.Close()
		return nil, File{}, err
	}

	if !info.Mode().IsRegular() {
		_ = fd.Close()
		return nil, File{}, status.ErrNotFound
	}

	file.Size = info.Size()
	return fd, file, nil
}

func (r *Resolver) resolve(resourcePath string) (File, error) {
	candidate := filepath.Join(r.root, filepath.FromSlash(resourcePath))
	if !r.contains(candidate) {
		return File{}, status.ErrNotFound
	}

	info, err := os.Stat(candidate)
	if err != nil {
		return File{}, statError(err)
	}

	switch {
	case info.Mode().IsRegular():
		return r.newFile(candidate, info), nil
	case info.IsDir():
		return r.resolveIndex(candidate)
	default:
		return File{}, status.ErrNotFound
	}
}

func (r *Resolver) resolveIndex(dir string) (File, error) {
	for _, name := range r.index {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if err = statError(err); errors.Is(err, status.ErrNotFound) {
				continue
			}

			return File{}, err
		}

		if info.Mode().IsRegular() {
			return r.newFile(path, info), nil
		}
	}

	return File{}, status.ErrNotFound
}

// ErrorDocument returns the file configured for the status code. The first matching
// entry is taken, relative paths are resolved against the server root. False is
// returned if there's no entry or its file doesn't exist.
func (r *Resolver) ErrorDocument(code status.Code) (File, bool) {
	for _, doc := range r.errorDocs {
		if doc.Code != code {
			continue
		}

		path := doc.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.serverRoot, path)
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return File{}, false
		}

		return r.newFile(path, info), true
	}

	return File{}, false
}

func (r *Resolver) newFile(path string, info fs.FileInfo) File {
	return File{
		Path: path,
		Size: info.Size(),
		Type: mime.Lookup(path, r.defaultType),
	}
}

// contains reports whether the cleaned path stays under the root.
func (r *Resolver) contains(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func statError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG):
		return status.ErrNotFound
	default:
		return err
	}
}
