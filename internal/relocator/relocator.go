// Package relocator rewrites absolute symlinks inside a sysroot into
// equivalent relative links, so the tree resolves correctly when mounted
// or referenced at any prefix.
package relocator

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

// Relocate walks root and replaces every symlink with an absolute
// target by a link to the same location expressed relatively from the
// link's own directory. Relative links and regular files are untouched.
// Returns the number of links rewritten.
func Relocate(root string) (int, error) {
	log := logger.Logger()

	root = filepath.Clean(root)
	count := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		target, err := os.Readlink(p)
		if err != nil {
			return fmt.Errorf("reading symlink %s: %w", p, err)
		}
		if !path.IsAbs(target) {
			return nil
		}

		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", p, err)
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(filepath.ToSlash(rel), "/") + 1
		}

		newTarget := strings.Repeat("../", depth) + strings.TrimPrefix(path.Clean(target), "/")
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("removing symlink %s: %w", p, err)
		}
		if err := os.Symlink(newTarget, p); err != nil {
			return fmt.Errorf("rewriting symlink %s: %w", p, err)
		}
		log.Debugf("relocated %s: %s -> %s", p, target, newTarget)
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}
