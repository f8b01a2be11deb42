package index

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Discovery finds IOP files under a workspace root, honoring ignore
// glob patterns.
type Discovery struct {
	ext     string
	ignore  []glob.Glob
	sources []string
}

// NewDiscovery compiles the ignore patterns. Patterns match against
// slash-separated paths relative to the workspace root.
func NewDiscovery(ext string, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{ext: ext, sources: ignorePatterns}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignore = append(d.ignore, g)
	}
	return d, nil
}

// Discover walks the root and returns every matching file, sorted for
// deterministic indexing order. Unreadable directory entries are
// skipped, not fatal.
func (d *Discovery) Discover(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// A file vanishing mid-scan skips that entry only.
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if rel != "." && d.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, d.ext) || d.ignored(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (d *Discovery) ignored(rel string) bool {
	for _, g := range d.ignore {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// PackagePath maps a package name to its conventional file path:
// dots become path separators and the extension is appended, so
// package foo.bar lives in foo/bar.iop.
func PackagePath(pkg, ext string) string {
	return filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/")) + ext
}
