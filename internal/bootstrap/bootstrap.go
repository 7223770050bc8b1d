// Package bootstrap drives one end-to-end run: trust the Release via
// the provisioned keyring, verify the Packages index against it, close
// over the dependency graph, install every package into the sysroot and
// relocate the result.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/archive"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/distro"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/fetcher"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/index"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/installer"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/keyring"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/relocator"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/resolver"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/verifier"
)

// Request is the immutable description of one bootstrap run, assembled
// by the CLI layer before any work starts.
type Request struct {
	Suite           distro.Suite
	Arch            string
	Mirror          string
	Target          string
	Include         []string
	ExcludeRequired bool
	Workers         int
	KeepScratch     bool
}

// Run executes the request. Any error is fatal to the run; the scratch
// directory is kept for inspection unless the run succeeds.
func Run(req Request) error {
	log := logger.Logger()

	scratch := filepath.Join(os.TempDir(), "sysroot-bootstrapper-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return fmt.Errorf("creating scratch directory %s: %w", scratch, err)
	}
	log.Debugf("scratch directory %s", scratch)

	if err := run(req, scratch); err != nil {
		return err
	}

	if req.KeepScratch {
		log.Infof("keeping scratch directory %s", scratch)
		return nil
	}
	if err := os.RemoveAll(scratch); err != nil {
		return fmt.Errorf("removing scratch directory %s: %w", scratch, err)
	}
	return nil
}

func run(req Request, scratch string) error {
	log := logger.Logger()

	// Trust anchor first: the keyring comes from a source independent of
	// the mirror it is about to verify.
	keyringPath, err := keyring.Provision(req.Suite, scratch)
	if err != nil {
		return err
	}

	rel, err := trustedRelease(req, scratch, keyringPath)
	if err != nil {
		return err
	}

	idx, err := verifiedPackages(req, scratch, rel)
	if err != nil {
		return err
	}
	log.Infof("Packages index for %s/%s lists %d packages", req.Suite.Name, req.Arch, idx.Len())

	seeds, err := seedList(req, idx)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		log.Infof("Nothing to install")
		return nil
	}

	names := resolver.Resolve(seeds, idx)
	log.Infof("resolved %d packages from %d seeds", len(names), len(seeds))
	for _, name := range names {
		log.Debugf("-> %s", name)
	}

	if err := os.MkdirAll(req.Target, 0755); err != nil {
		return fmt.Errorf("creating sysroot %s: %w", req.Target, err)
	}

	inst := &installer.Installer{
		Mirror:      req.Mirror,
		Index:       idx,
		ScratchRoot: scratch,
		Sysroot:     req.Target,
		Workers:     req.Workers,
	}
	if err := inst.Install(names); err != nil {
		return err
	}

	rewritten, err := relocator.Relocate(req.Target)
	if err != nil {
		return fmt.Errorf("relocating symlinks under %s: %w", req.Target, err)
	}
	log.Infof("relocated %d absolute symlinks", rewritten)

	log.Infof("sysroot for %s/%s ready at %s", req.Suite.Name, req.Arch, req.Target)
	return nil
}

// trustedRelease fetches the Release index and its detached signature
// and verifies the signature against the provisioned keyring.
func trustedRelease(req Request, scratch, keyringPath string) (*index.Release, error) {
	log := logger.Logger()

	base := req.Mirror + "/dists/" + req.Suite.Name
	releasePath, err := fetcher.Fetch(base+"/Release", scratch)
	if err != nil {
		return nil, err
	}
	sigPath, err := fetcher.Fetch(base+"/Release.gpg", scratch)
	if err != nil {
		return nil, err
	}

	if err := verifier.VerifyDetachedSignature(releasePath, sigPath, keyringPath); err != nil {
		return nil, err
	}
	log.Infof("Release signature for %s verified", req.Suite.Name)

	f, err := os.Open(releasePath)
	if err != nil {
		return nil, fmt.Errorf("opening Release: %w", err)
	}
	defer f.Close()
	return index.ParseRelease(f)
}

// verifiedPackages fetches Packages.gz, checks its digest against the
// signed Release, then decompresses and parses it.
func verifiedPackages(req Request, scratch string, rel *index.Release) (*index.Packages, error) {
	relPath := "main/binary-" + req.Arch + "/Packages.gz"

	expected, ok := rel.SHA256(relPath)
	if !ok {
		return nil, fmt.Errorf("Release for %s has no SHA256 entry for %s", req.Suite.Name, relPath)
	}

	gzPath, err := fetcher.Fetch(req.Mirror+"/dists/"+req.Suite.Name+"/"+relPath, scratch)
	if err != nil {
		return nil, err
	}
	if err := verifier.VerifySHA256(gzPath, expected); err != nil {
		return nil, err
	}

	plainPath, err := archive.Decompress(gzPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(plainPath)
	if err != nil {
		return nil, fmt.Errorf("opening Packages: %w", err)
	}
	defer f.Close()
	return index.ParsePackages(f)
}

// seedList builds the resolver seeds: the required base set (unless
// excluded) followed by the user's includes, which must exist in the
// index.
func seedList(req Request, idx *index.Packages) ([]string, error) {
	var seeds []string
	if !req.ExcludeRequired {
		seeds = idx.Required()
	}
	for _, name := range req.Include {
		if !idx.Exists(name) {
			return nil, fmt.Errorf("requested package %s not found in %s/%s",
				name, req.Suite.Name, req.Arch)
		}
		seeds = append(seeds, name)
	}
	return seeds, nil
}
