// Package workspace discovers GDL library parts on disk and answers lookups
// over them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNotFound is returned by FileSystem.ReadFile for a missing file.
var ErrNotFound = errors.New("file not found")

// FileSystem is the read-only view of the workspace used by the index and the
// call-graph resolver.
type FileSystem interface {
	// Glob returns absolute paths under root whose slash-separated path
	// relative to root matches pattern. Patterns use .gitignore syntax and
	// ignore case.
	Glob(ctx context.Context, root, pattern string) ([]string, error)
	// ReadFile returns the decoded text of path. A missing file yields an
	// error wrapping ErrNotFound.
	ReadFile(ctx context.Context, path string) (string, error)
	Exists(path string) bool
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
}

// OSFileSystem reads the local disk.
type OSFileSystem struct {
	respectGitignore bool
	exclude          []string
}

// FSOption configures an OSFileSystem.
type FSOption func(*OSFileSystem)

// WithGitignore controls whether each root's .gitignore prunes Glob results.
func WithGitignore(enabled bool) FSOption {
	return func(f *OSFileSystem) {
		f.respectGitignore = enabled
	}
}

// WithExclude adds .gitignore-style patterns whose matches are skipped by
// Glob. A matching directory is pruned.
func WithExclude(patterns ...string) FSOption {
	return func(f *OSFileSystem) {
		f.exclude = append(f.exclude, patterns...)
	}
}

// NewOSFileSystem returns a FileSystem over the local disk. Gitignore handling
// is on by default.
func NewOSFileSystem(opts ...FSOption) *OSFileSystem {
	f := &OSFileSystem{respectGitignore: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Glob walks root, skipping hidden and vendored directories.
func (f *OSFileSystem) Glob(ctx context.Context, root, pattern string) ([]string, error) {
	var gi, exclude *ignore.GitIgnore
	if f.respectGitignore {
		gi = loadGitignore(root)
	}
	if len(f.exclude) > 0 {
		exclude = compilePatterns(f.exclude...)
	}
	include := compilePatterns(pattern)

	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if matchesPath(exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if matchesPath(exclude, rel) {
			return nil
		}
		if matchesPath(include, rel) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile reads path and decodes it as UTF-8, honouring a UTF-8 or UTF-16
// byte order mark.
func (f *OSFileSystem) ReadFile(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return DecodeText(b)
}

// Exists reports whether p names a regular file.
func (f *OSFileSystem) Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// DecodeText strips a byte order mark and converts UTF-16 input to UTF-8.
func DecodeText(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// compilePatterns compiles .gitignore-style patterns for matchesPath.
func compilePatterns(patterns ...string) *ignore.GitIgnore {
	lower := make([]string, len(patterns))
	for i, p := range patterns {
		lower[i] = strings.ToLower(p)
	}
	return ignore.CompileIgnoreLines(lower...)
}

// matchesPath reports whether the slash-separated rel path matches gi,
// ignoring case. A nil gi matches nothing.
func matchesPath(gi *ignore.GitIgnore, rel string) bool {
	return gi != nil && gi.MatchesPath(strings.ToLower(rel))
}
