// Package index parses the two repository index formats the bootstrap
// pipeline consumes: the signed Release manifest and the per-arch
// Packages catalog. Both are parsed into in-memory structures once so
// lookups are constant time.
package index

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SHA256Entry is one line of the Release SHA256 section.
type SHA256Entry struct {
	Digest string
	Size   int64
	Path   string
}

// Release is a parsed Release index: the plain top-level fields plus the
// SHA256 digest table keyed by repository-relative path.
type Release struct {
	Fields map[string]string
	sha256 map[string]SHA256Entry
}

// ParseRelease reads a Release document. Checksum sections other than
// SHA256 (MD5Sum, SHA1) are skipped.
func ParseRelease(r io.Reader) (*Release, error) {
	rel := &Release{
		Fields: make(map[string]string),
		sha256: make(map[string]SHA256Entry),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inSHA256 := false
	for scanner.Scan() {
		line := scanner.Text()

		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if !inSHA256 {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 3 {
				continue
			}
			var size int64
			if _, err := fmt.Sscanf(fields[1], "%d", &size); err != nil {
				continue
			}
			rel.sha256[fields[2]] = SHA256Entry{
				Digest: fields[0],
				Size:   size,
				Path:   fields[2],
			}
			continue
		}

		inSHA256 = false
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if name == "SHA256" {
			inSHA256 = true
			continue
		}
		rel.Fields[name] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading Release: %w", err)
	}

	return rel, nil
}

// SHA256 returns the expected digest for a repository-relative path, or
// false when the Release carries no entry for it.
func (r *Release) SHA256(path string) (string, bool) {
	e, ok := r.sha256[path]
	return e.Digest, ok
}
