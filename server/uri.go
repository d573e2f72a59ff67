package server

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath returns the local path of a file:// URI, or an empty string for
// any other scheme.
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "file" {
		return ""
	}
	path := filepath.FromSlash(parsed.Path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return u.String()
}

// samePath reports whether a path reported by clazy refers to fileName.
// Relative paths are resolved against dir.
func samePath(dir, reported, fileName string) bool {
	if reported == "" {
		return false
	}
	if !filepath.IsAbs(reported) {
		reported = filepath.Join(dir, reported)
	}
	return filepath.Clean(reported) == filepath.Clean(fileName)
}

// within reports whether fileName is dir, or inside it.
func within(dir, fileName string) bool {
	rel, err := filepath.Rel(dir, fileName)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
