package security

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tirasundara/payment-converter/internal/domain"
)

// traversalPattern matches a ".." segment next to a path separator.
var traversalPattern = regexp.MustCompile(`(^|[/\\])\.\.([/\\]|$)`)

// PathPolicy allows file access only below a set of base directories.
type PathPolicy struct {
	baseDirs []string
}

// NewPathPolicy canonicalizes baseDirs once. Entries that are empty or cannot
// be resolved are dropped.
func NewPathPolicy(baseDirs ...string) *PathPolicy {
	p := &PathPolicy{}
	for _, dir := range baseDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		canonical, err := canonicalize(dir)
		if err != nil {
			continue
		}
		p.baseDirs = append(p.baseDirs, canonical)
	}
	return p
}

// DefaultPathPolicy allows the user's home directory and the system temp dir.
func DefaultPathPolicy() *PathPolicy {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	dirs = append(dirs, os.TempDir())
	return NewPathPolicy(dirs...)
}

// BaseDirs returns the canonical allowed directories.
func (p *PathPolicy) BaseDirs() []string {
	return append([]string(nil), p.baseDirs...)
}

// Resolve returns the canonical form of raw. The raw path must not contain a
// traversal segment and the canonical path must lie inside a base directory.
func (p *PathPolicy) Resolve(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.NewSecurityError("File path cannot be empty", "empty path")
	}

	if traversalPattern.MatchString(raw) {
		return "", domain.NewSecurityError("Path traversal detected in file path", "traversal pattern: "+raw)
	}

	canonical, err := canonicalize(raw)
	if err != nil {
		return "", domain.NewSecurityError("File path could not be resolved", err.Error())
	}

	for _, base := range p.baseDirs {
		if within(base, canonical) {
			return canonical, nil
		}
	}

	return "", domain.NewSecurityError("File access outside allowed directories", "outside allow-list: "+canonical)
}

func within(base, path string) bool {
	if path == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// canonicalize returns the absolute, cleaned, symlink-free form of path. Only
// the deepest existing ancestor is resolved so that not-yet-created output
// files can be checked too.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	existing := abs
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}
