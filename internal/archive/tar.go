package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

// ExtractTar unpacks a POSIX tar stream into dest. File modes are
// preserved; owner and group are applied best-effort (chown needs
// privilege and is skipped quietly when denied). Symlink targets are
// written verbatim; making them relocatable is a separate pass.
func ExtractTar(path, dest string) error {
	log := logger.Logger()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar %s: %w", filepath.Base(path), err)
		}

		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating parent of %s: %w", hdr.Name, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode))
			if err != nil {
				return fmt.Errorf("creating %s: %w", hdr.Name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("writing %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", hdr.Name, err)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating parent of %s: %w", hdr.Name, err)
			}
			// A later package may replace an earlier link.
			if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("replacing %s: %w", hdr.Name, err)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink %s: %w", hdr.Name, err)
			}
		case tar.TypeLink:
			linkTarget, err := securePath(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("replacing %s: %w", hdr.Name, err)
			}
			if err := os.Link(linkTarget, target); err != nil {
				return fmt.Errorf("creating hardlink %s: %w", hdr.Name, err)
			}
		default:
			// Device nodes and FIFOs need privilege we may not have.
			log.Debugf("skipping tar entry %s (type %c)", hdr.Name, hdr.Typeflag)
			continue
		}

		if hdr.Typeflag == tar.TypeSymlink {
			if err := os.Lchown(target, hdr.Uid, hdr.Gid); err != nil && !errors.Is(err, fs.ErrPermission) {
				log.Debugf("lchown %s: %v", hdr.Name, err)
			}
			continue
		}
		if err := os.Chown(target, hdr.Uid, hdr.Gid); err != nil && !errors.Is(err, fs.ErrPermission) {
			log.Debugf("chown %s: %v", hdr.Name, err)
		}
	}
}

// securePath joins name onto dest and rejects entries that would escape
// the destination tree.
func securePath(dest, name string) (string, error) {
	dest = filepath.Clean(dest)
	target := filepath.Join(dest, name)
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", fmt.Errorf("tar entry %q escapes destination", name)
	}
	return target, nil
}
