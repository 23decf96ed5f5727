package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathOutsideRoots is returned for paths that leave every allowed root.
var ErrPathOutsideRoots = errors.New("path outside allowed roots")

// JailPath resolves userPath against root and returns the cleaned result if
// it stays inside root. Absolute paths are accepted only when already inside.
func JailPath(root, userPath string) (string, error) {
	cleanRoot := filepath.Clean(root)
	resolved := filepath.Clean(userPath)
	if !filepath.IsAbs(userPath) {
		resolved = filepath.Join(cleanRoot, userPath)
	}
	if contains(cleanRoot, resolved) {
		return resolved, nil
	}
	return "", fmt.Errorf("%w: %s is not under %s", ErrPathOutsideRoots, userPath, cleanRoot)
}

// WithinRoots returns the cleaned absolute path if it lies inside one of
// roots. Relative paths are rejected.
func WithinRoots(roots []string, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %s is not absolute", ErrPathOutsideRoots, path)
	}
	clean := filepath.Clean(path)
	for _, root := range roots {
		if contains(filepath.Clean(root), clean) {
			return clean, nil
		}
	}
	return "", fmt.Errorf("%w: %s (allowed: %s)", ErrPathOutsideRoots, path, strings.Join(roots, ", "))
}

// contains checks path against root both as written and with symlinks in
// the existing part of each resolved, so a link inside a root cannot lead
// outside it.
func contains(root, path string) bool {
	if !inside(root, path) {
		return false
	}
	realRoot, err := resolveExisting(root)
	if err != nil {
		return false
	}
	realPath, err := resolveExisting(path)
	if err != nil {
		return false
	}
	return inside(realRoot, realPath)
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
// and appends the missing rest unchanged. A dangling link is an error.
func resolveExisting(path string) (string, error) {
	cur, rest := path, ""
	for {
		if _, err := os.Lstat(cur); err == nil {
			real, err := filepath.EvalSymlinks(cur)
			if err != nil {
				return "", err
			}
			return filepath.Join(real, rest), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

func inside(root, path string) bool {
	if path == root {
		return true
	}
	if root == string(filepath.Separator) {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
