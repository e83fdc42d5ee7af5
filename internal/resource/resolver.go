// Package resource implements the pluggable package-path resolver that
// backs the $(find PKG) substitution extension (spec.md §6: "Package-path
// resolver for $(find PKG) (may be absent; absence is a hard error only
// if $(find ...) appears)"). The original xacro delegates to rospkg,
// which is out of tree; this package supplies a minimal, swappable
// default so the extension works standalone.
package resource

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver finds the filesystem directory for a named package.
type PathResolver interface {
	Find(pkg string) (string, error)
}

// SearchPathResolver resolves a package name by looking for a
// like-named directory under each entry of Roots, in order. This
// mirrors a simplified ROS-style package index without depending on
// ROS tooling being installed.
type SearchPathResolver struct {
	Roots []string
}

// NewSearchPathResolver builds a resolver from a colon-separated search
// path such as the environment variable conventionally named
// XACRO_PATH; empty entries are ignored.
func NewSearchPathResolver(searchPath string) *SearchPathResolver {
	var roots []string
	for _, p := range filepath.SplitList(searchPath) {
		if p != "" {
			roots = append(roots, p)
		}
	}
	return &SearchPathResolver{Roots: roots}
}

func (r *SearchPathResolver) Find(pkg string) (string, error) {
	for _, root := range r.Roots {
		candidate := filepath.Join(root, pkg)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("resource: package %q not found in search path %v", pkg, r.Roots)
}
