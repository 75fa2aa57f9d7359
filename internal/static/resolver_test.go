package static

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/indigo-web/httpd/config"
	"github.com/indigo-web/httpd/http/mime"
	"github.com/indigo-web/httpd/http/status"
	"github.com/stretchr/testify/require"
)

type tree map[string]string

func mktree(t *testing.T, base string, files tree) {
	for name, content := range files {
		path := filepath.Join(base, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newResolver(t *testing.T, files tree, mutate ...func(*config.Config)) (*Resolver, *config.Config) {
	serverRoot := t.TempDir()
	cfg := config.Default()
	cfg.ServerRoot = serverRoot
	cfg.DocumentRoot = filepath.Join(serverRoot, "www")
	require.NoError(t, os.Mkdir(cfg.DocumentRoot, 0o755))
	mktree(t, cfg.DocumentRoot, files)

	for _, m := range mutate {
		m(cfg)
	}

	resolver, err := New(cfg)
	require.NoError(t, err)

	return resolver, cfg
}

func TestResolve(t *testing.T) {
	t.Run("regular file", func(t *testing.T) {
		content := strings.Repeat("x", 50)
		resolver, cfg := newResolver(t, tree{"index.html": content})
		file, err := resolver.Resolve("/index.html")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(cfg.DocumentRoot, "index.html"), file.Path)
		require.Equal(t, int64(50), file.Size)
		require.Equal(t, mime.HTML, file.Type)
		require.True(t, file.IsText())
	})

	t.Run("nested file", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{"img/logo.png": "png"})
		file, err := resolver.Resolve("/img/logo.png")
		require.NoError(t, err)
		require.Equal(t, mime.PNG, file.Type)
		require.False(t, file.IsText())
	})

	t.Run("unknown extension", func(t *testing.T) {
		resolver, cfg := newResolver(t, tree{"file.xyz": "?", "Makefile": "all:"})
		file, err := resolver.Resolve("/file.xyz")
		require.NoError(t, err)
		require.Equal(t, cfg.DefaultType, file.Type)

		file, err = resolver.Resolve("/Makefile")
		require.NoError(t, err)
		require.Equal(t, cfg.DefaultType, file.Type)
	})

	t.Run("directory index order", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{"docs/index.htm": "htm"})
		file, err := resolver.Resolve("/docs")
		require.NoError(t, err)
		require.Equal(t, "index.htm", filepath.Base(file.Path))

		resolver, _ = newResolver(t, tree{"index.htm": "htm", "index.html": "html"})
		file, err = resolver.Resolve("/")
		require.NoError(t, err)
		require.Equal(t, "index.html", filepath.Base(file.Path))
	})

	t.Run("directory index must be a regular file", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{"index.html/nested.txt": "", "index.htm": "htm"})
		file, err := resolver.Resolve("/")
		require.NoError(t, err)
		require.Equal(t, "index.htm", filepath.Base(file.Path))
	})

	t.Run("directory without index", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{"docs/readme.txt": ""})
		_, err := resolver.Resolve("/docs/")
		require.ErrorIs(t, err, status.ErrNotFound)
		_, err = resolver.Resolve("/")
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{"a.txt": ""})
		for _, path := range []string{"/b.txt", "/a.txt/b", "/" + strings.Repeat("a", 5000)} {
			_, err := resolver.Resolve(path)
			require.ErrorIs(t, err, status.ErrNotFound, path)
		}
	})

	t.Run("traversal", func(t *testing.T) {
		resolver, cfg := newResolver(t, tree{"index.html": ""})
		mktree(t, cfg.ServerRoot, tree{"secret.txt": "password"})

		for _, path := range []string{"/../secret.txt", "/../../../../etc/passwd", "/a/../../secret.txt", ".."} {
			_, err := resolver.Resolve(path)
			require.ErrorIs(t, err, status.ErrNotFound, path)
		}

		// staying inside is fine
		file, err := resolver.Resolve("/a/../index.html")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(cfg.DocumentRoot, "index.html"), file.Path)
	})

	t.Run("file system fault", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{})
		_, err := resolver.Resolve("/a\x00b")
		require.Error(t, err)
		require.NotErrorIs(t, err, status.ErrNotFound)
		require.Equal(t, status.InternalServerError, status.CodeOf(err))
	})

	t.Run("relative document root", func(t *testing.T) {
		cfg := config.Default()
		cfg.DocumentRoot = "."
		resolver, err := New(cfg)
		require.NoError(t, err)
		require.True(t, filepath.IsAbs(resolver.Root()))
		_, err = resolver.Resolve("/resolver.go")
		require.NoError(t, err)
	})
}

func TestCache(t *testing.T) {
	resolver, cfg := newResolver(t, tree{"a.txt": "aaa"}, func(cfg *config.Config) {
		cfg.ResolveCacheTTL = time.Minute
	})
	path := filepath.Join(cfg.DocumentRoot, "a.txt")

	file, err := resolver.Resolve("/a.txt")
	require.NoError(t, err)

	t.Run("size is refreshed on open", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("aaaaaa"), 0o644))

		cached, err := resolver.Resolve("/a.txt")
		require.NoError(t, err)
		require.Equal(t, file, cached)

		fd, opened, err := resolver.Open("/a.txt")
		require.NoError(t, err)
		require.NoError(t, fd.Close())
		require.Equal(t, int64(6), opened.Size)
		require.Equal(t, file.Path, opened.Path)
	})

	t.Run("removed file is evicted", func(t *testing.T) {
		require.NoError(t, os.Remove(path))

		_, err := resolver.Resolve("/a.txt")
		require.NoError(t, err, "must still be cached")

		_, _, err = resolver.Open("/a.txt")
		require.ErrorIs(t, err, status.ErrNotFound)
		_, err = resolver.Resolve("/a.txt")
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("misses aren't cached", func(t *testing.T) {
		mktree(t, cfg.DocumentRoot, tree{"a.txt": "aaa"})
		_, err := resolver.Resolve("/a.txt")
		require.NoError(t, err)
	})
}

func TestOpenFile(t *testing.T) {
	t.Run("regular file", func(t *testing.T) {
		resolver, _ := newResolver(t, tree{"index.html": "hello"})
		fd, file, err := resolver.Open("/index.html")
		require.NoError(t, err)
		defer fd.Close()
		require.Equal(t, int64(5), file.Size)
		content, err := io.ReadAll(fd)
		require.NoError(t, err)
		require.Equal(t, "hello", string(content))
	})

	t.Run("not a regular file anymore", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := OpenFile(File{Path: dir})
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("unreadable", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permissions aren't enforced for root")
		}

		resolver, cfg := newResolver(t, tree{"secret.txt": "top secret"})
		require.NoError(t, os.Chmod(filepath.Join(cfg.DocumentRoot, "secret.txt"), 0o000))

		_, err := resolver.Resolve("/secret.txt")
		require.NoError(t, err)
		_, _, err = resolver.Open("/secret.txt")
		require.Error(t, err)
		require.Equal(t, status.InternalServerError, status.CodeOf(err))
	})
}

func TestErrorDocument(t *testing.T) {
	t.Run("relative to server root", func(t *testing.T) {
		resolver, cfg := newResolver(t, tree{}, func(cfg *config.Config) {
			cfg.ErrorDocuments = []config.ErrorDocument{
				{Code: status.NotFound, Path: "errors/404.html"},
			}
		})
		mktree(t, cfg.ServerRoot, tree{"errors/404.html": "not found"})

		file, ok := resolver.ErrorDocument(status.NotFound)
		require.True(t, ok)
		require.Equal(t, filepath.Join(cfg.ServerRoot, "errors", "404.html"), file.Path)
		require.Equal(t, mime.HTML, file.Type)
		require.Equal(t, int64(len("not found")), file.Size)

		_, ok = resolver.ErrorDocument(status.InternalServerError)
		require.False(t, ok)
	})

	t.Run("absolute", func(t *testing.T) {
		elsewhere := t.TempDir()
		mktree(t, elsewhere, tree{"500.txt": "oops"})
		resolver, _ := newResolver(t, tree{}, func(cfg *config.Config) {
			cfg.ErrorDocuments = []config.ErrorDocument{
				{Code: status.InternalServerError, Path: filepath.Join(elsewhere, "500.txt")},
			}
		})

		file, ok := resolver.ErrorDocument(status.InternalServerError)
		require.True(t, ok)
		require.Equal(t, mime.Plain, file.Type)
	})

	t.Run("first entry wins", func(t *testing.T) {
		resolver, cfg := newResolver(t, tree{}, func(cfg *config.Config) {
			cfg.ErrorDocuments = []config.ErrorDocument{
				{Code: status.NotFound, Path: "missing.html"},
				{Code: status.NotFound, Path: "present.html"},
			}
		})
		mktree(t, cfg.ServerRoot, tree{"present.html": ""})

		_, ok := resolver.ErrorDocument(status.NotFound)
		require.False(t, ok)
	})
}
