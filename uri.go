package gdlgraph

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// PathToURI returns the file:// URI of an absolute path.
func PathToURI(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // drive letter
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// URIToPath returns the file path of a file:// URI. Strings without a scheme
// are taken to be paths already.
func URIToPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return filepath.Clean(uri), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("uri %q: unsupported scheme %q", uri, u.Scheme)
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.Clean(filepath.FromSlash(p)), nil
}
