package distro

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

// Suite describes one distribution release: where its trust anchor comes
// from and how to find the keyring file inside that source archive. The
// keyring source is deliberately not the package mirror the keyring will
// later verify.
type Suite struct {
	Name          string
	KeyringURL    string
	KeyringMember string
}

const (
	primaryMirror = "http://archive.ubuntu.com/ubuntu"
	portsMirror   = "http://ports.ubuntu.com/ubuntu-ports"
)

// suites is the built-in suite table. Entries point at the ubuntu-keyring
// source tarballs published on Launchpad.
var suites = map[string]Suite{
	"focal": {
		Name:          "focal",
		KeyringURL:    "https://launchpad.net/ubuntu/+archive/primary/+sourcefiles/ubuntu-keyring/2020.02.11.4/ubuntu-keyring_2020.02.11.4.tar.gz",
		KeyringMember: "ubuntu-keyring-2020.02.11.4/keyrings/ubuntu-archive-keyring.gpg",
	},
	"jammy": {
		Name:          "jammy",
		KeyringURL:    "https://launchpad.net/ubuntu/+archive/primary/+sourcefiles/ubuntu-keyring/2021.03.26/ubuntu-keyring_2021.03.26.tar.gz",
		KeyringMember: "ubuntu-keyring-2021.03.26/keyrings/ubuntu-archive-keyring.gpg",
	},
	"noble": {
		Name:          "noble",
		KeyringURL:    "https://launchpad.net/ubuntu/+archive/primary/+sourcefiles/ubuntu-keyring/2023.11.28.1/ubuntu-keyring_2023.11.28.1.tar.gz",
		KeyringMember: "ubuntu-keyring-2023.11.28.1/keyrings/ubuntu-archive-keyring.gpg",
	},
}

// mirrors maps an architecture to its repository base URL. Architectures
// without an entry fall back to the ports archive.
var mirrors = map[string]string{
	"amd64": primaryMirror,
	"i386":  primaryMirror,
}

// LookupSuite returns the table entry for name. Unknown suites are an
// error; no network access happens on this path.
func LookupSuite(name string) (Suite, error) {
	s, ok := suites[name]
	if !ok {
		return Suite{}, fmt.Errorf("unknown suite %q (known: %v)", name, knownSuites())
	}
	return s, nil
}

func knownSuites() []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mirror selects the repository base URL for an architecture. amd64 and
// i386 live on the primary archive; everything else is served from ports.
func Mirror(arch string) string {
	if m, ok := mirrors[arch]; ok {
		return m
	}
	return portsMirror
}

// HostArch maps the running process architecture to the Debian name used
// in repository paths.
func HostArch() string {
	switch runtime.GOARCH {
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	case "ppc64le":
		return "ppc64el"
	default:
		// amd64, arm64, riscv64, s390x already match the Debian names.
		return runtime.GOARCH
	}
}

// RegisterSuite adds or replaces a suite entry. Used when merging a
// configuration override file.
func RegisterSuite(s Suite) {
	log := logger.Logger()
	if _, exists := suites[s.Name]; exists {
		log.Debugf("overriding built-in suite %s", s.Name)
	}
	suites[s.Name] = s
}

// RegisterMirror overrides the mirror for one architecture.
func RegisterMirror(arch, url string) {
	mirrors[arch] = url
}
