// Package keyring provisions the trust anchor for a suite. The keyring
// is fetched from a distribution-governance source, never from the
// package mirror it will later be used to verify.
package keyring

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/archive"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/distro"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/fetcher"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

// Provision fetches the suite's keyring source archive, extracts the
// nominated keyring file and returns its local path.
func Provision(suite distro.Suite, scratchRoot string) (string, error) {
	log := logger.Logger()

	log.Infof("provisioning archive keyring for %s", suite.Name)
	local, err := fetcher.Fetch(suite.KeyringURL, scratchRoot)
	if err != nil {
		return "", fmt.Errorf("fetching keyring source for suite %s: %w", suite.Name, err)
	}

	tarPath := local
	if ext := filepath.Ext(local); ext != ".tar" {
		tarPath, err = archive.Decompress(local)
		if err != nil {
			return "", fmt.Errorf("decompressing keyring source for suite %s: %w", suite.Name, err)
		}
	}
	if !strings.HasSuffix(tarPath, ".tar") {
		return "", fmt.Errorf("keyring source %s for suite %s is not a tar archive",
			filepath.Base(tarPath), suite.Name)
	}

	unpackDir := filepath.Join(scratchRoot, "keyring", suite.Name)
	if err := archive.ExtractTar(tarPath, unpackDir); err != nil {
		return "", fmt.Errorf("unpacking keyring source for suite %s: %w", suite.Name, err)
	}

	keyringPath := filepath.Join(unpackDir, filepath.FromSlash(suite.KeyringMember))
	if _, err := os.Stat(keyringPath); err != nil {
		return "", fmt.Errorf("keyring member %s missing from %s source archive",
			suite.KeyringMember, suite.Name)
	}

	log.Debugf("keyring for %s at %s", suite.Name, keyringPath)
	return keyringPath, nil
}
