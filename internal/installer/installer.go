// Package installer materializes resolved packages into the sysroot:
// fetch the .deb, verify its recorded digest, split the ar container,
// decompress data.tar and extract it over the target tree.
package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/archive"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/fetcher"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/index"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/verifier"
)

// Installer carries the fixed context for one bootstrap run.
type Installer struct {
	Mirror      string
	Index       *index.Packages
	ScratchRoot string
	Sysroot     string
	Workers     int
}

// Install downloads, verifies and unpacks the named packages in order.
// Downloads run through the worker pool; extraction is strictly
// sequential in list order so a later package's files win over an
// earlier package's.
func (inst *Installer) Install(names []string) error {
	log := logger.Logger()

	urls := make([]string, 0, len(names))
	for _, name := range names {
		u, err := inst.debURL(name)
		if err != nil {
			return err
		}
		urls = append(urls, u)
	}

	log.Infof("downloading %d packages with %d workers", len(urls), inst.Workers)
	if err := fetcher.FetchAll(urls, inst.ScratchRoot, inst.Workers); err != nil {
		return err
	}

	for i, name := range names {
		local, err := fetcher.LocalPath(urls[i], inst.ScratchRoot)
		if err != nil {
			return err
		}
		if err := verifier.VerifySHA256(local, inst.Index.Field(name, "SHA256")); err != nil {
			return fmt.Errorf("package %s: %w", name, err)
		}
		log.Infof("unpacking %s", name)
		if err := inst.unpack(name, local); err != nil {
			return err
		}
	}
	return nil
}

// debURL builds the mirror URL for one package from its Filename field.
func (inst *Installer) debURL(name string) (string, error) {
	filename := inst.Index.Field(name, "Filename")
	if filename == "" {
		return "", fmt.Errorf("package %s has no Filename entry", name)
	}
	if inst.Index.Field(name, "SHA256") == "" {
		return "", fmt.Errorf("package %s has no SHA256 entry", name)
	}
	return inst.Mirror + "/" + filename, nil
}

// unpack splits one verified .deb and extracts its data.tar into the
// sysroot.
func (inst *Installer) unpack(name, debPath string) error {
	pkgDir := filepath.Join(inst.ScratchRoot, "unpack", name)
	if err := archive.ExtractAr(debPath, pkgDir); err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}

	dataTar, err := findDataTar(pkgDir)
	if err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}

	// An uncompressed data.tar passes straight through.
	if !strings.HasSuffix(dataTar, ".tar") {
		dataTar, err = archive.Decompress(dataTar)
		if err != nil {
			return fmt.Errorf("package %s: %w", name, err)
		}
	}

	if err := archive.ExtractTar(dataTar, inst.Sysroot); err != nil {
		return fmt.Errorf("package %s: %w", name, err)
	}
	return nil
}

// findDataTar locates the single data.tar member of an exploded .deb.
// dpkg writes exactly one, compressed or not.
func findDataTar(pkgDir string) (string, error) {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pkgDir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "data.tar") {
			return filepath.Join(pkgDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no data.tar member found in %s", filepath.Base(pkgDir))
}
