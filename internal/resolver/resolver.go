// Package resolver computes the transitive closure of packages to
// install. Selection is deterministic: breadth-first over the seed
// order, always preferring the first alternative of a dependency clause.
package resolver

import (
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/index"
	"github.com/open-edge-platform/sysroot-bootstrapper/internal/logger"
)

// Resolve expands seeds into an ordered, duplicate-free list of
// installable package names using Pre-Depends and Depends. A clause is
// satisfied when any of its alternatives is already installed or
// queued; otherwise its first alternative is enqueued. Names with no
// stanza of their own (virtual packages, satisfied via Provides) are
// dropped from the final list without picking a substitute.
func Resolve(seeds []string, idx *index.Packages) []string {
	log := logger.Logger()

	var installed []string
	installedSet := make(map[string]bool)
	// seen covers installed ∪ queue: once a name is enqueued it never
	// needs to be enqueued again.
	seen := make(map[string]bool)

	var queue []string
	for _, s := range seeds {
		if !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if installedSet[p] {
			continue
		}
		installed = append(installed, p)
		installedSet[p] = true

		for _, field := range []string{"Pre-Depends", "Depends"} {
			raw := idx.Field(p, field)
			if raw == "" {
				continue
			}
			for _, alts := range index.ParseDepends(raw) {
				satisfied := false
				for _, alt := range alts {
					if seen[alt] {
						satisfied = true
						break
					}
				}
				if satisfied {
					continue
				}
				first := alts[0]
				seen[first] = true
				queue = append(queue, first)
				log.Debugf("%s %s pulls in %s", p, field, first)
			}
		}
	}

	// Virtual-only names were enqueued optimistically; drop them now.
	var result []string
	for _, name := range installed {
		if idx.Exists(name) {
			result = append(result, name)
		} else {
			log.Debugf("dropping virtual-only name %s", name)
		}
	}
	return result
}
