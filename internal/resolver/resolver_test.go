package resolver

import (
	"reflect"
	"strings"
	"testing"

	"github.com/open-edge-platform/sysroot-bootstrapper/internal/index"
)

func buildIndex(t *testing.T, content string) *index.Packages {
	t.Helper()
	idx, err := index.ParsePackages(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePackages failed: %v", err)
	}
	return idx
}

func TestResolveBasicClosure(t *testing.T) {
	idx := buildIndex(t, `Package: app
Depends: liba, libb

Package: liba
Depends: libc

Package: libb

Package: libc
`)

	got := Resolve([]string{"app"}, idx)
	want := []string{"app", "liba", "libb", "libc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveFirstAlternativeWins(t *testing.T) {
	// Neither X nor Y is otherwise pulled in; the first listed
	// alternative must be chosen.
	idx := buildIndex(t, `Package: a
Depends: x | y

Package: x

Package: y
`)

	got := Resolve([]string{"a"}, idx)
	want := []string{"a", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveAlternativeSatisfiedInFlight(t *testing.T) {
	// y is a seed ahead of a, so it is already installed when a is
	// expanded; the clause "x | y" is satisfied without enqueuing x.
	idx := buildIndex(t, `Package: a
Depends: x | y

Package: x

Package: y
`)

	got := Resolve([]string{"y", "a"}, idx)
	want := []string{"y", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveVirtualOnlyDependency(t *testing.T) {
	// awk exists only as a Provides of mawk and gawk. The first
	// alternative (awk itself) is enqueued, then dropped at the filter;
	// no substitute is installed.
	idx := buildIndex(t, `Package: a
Depends: awk

Package: mawk
Provides: awk

Package: gawk
Provides: awk
`)

	got := Resolve([]string{"a"}, idx)
	want := []string{"a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
	for _, name := range got {
		if name == "mawk" || name == "gawk" {
			t.Errorf("virtual dependency pulled in a substitute: %v", got)
		}
	}
}

func TestResolveSelfDependency(t *testing.T) {
	idx := buildIndex(t, `Package: selfish
Depends: selfish
`)

	got := Resolve([]string{"selfish"}, idx)
	want := []string{"selfish"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveDependencyCycle(t *testing.T) {
	idx := buildIndex(t, `Package: a
Depends: b

Package: b
Depends: c

Package: c
Depends: a
`)

	got := Resolve([]string{"a"}, idx)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolvePreDependsBeforeDepends(t *testing.T) {
	idx := buildIndex(t, `Package: app
Pre-Depends: early
Depends: late

Package: early

Package: late
`)

	got := Resolve([]string{"app"}, idx)
	want := []string{"app", "early", "late"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveSeedOrderAndDeduplication(t *testing.T) {
	idx := buildIndex(t, `Package: one

Package: two

Package: three
`)

	got := Resolve([]string{"two", "one", "two", "three", "one"}, idx)
	want := []string{"two", "one", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveEmptySeeds(t *testing.T) {
	idx := buildIndex(t, `Package: anything
`)

	if got := Resolve(nil, idx); len(got) != 0 {
		t.Errorf("Resolve(nil) = %v, want empty", got)
	}
}

func TestResolveClosureInvariant(t *testing.T) {
	// Every clause of every resolved package must have at least one
	// alternative that is resolved or virtual-only.
	idx := buildIndex(t, `Package: base-files
Priority: required
Depends: libc6, libcrypt1

Package: libc6
Pre-Depends: libgcc-s1

Package: libgcc-s1
Depends: gcc-12-base

Package: gcc-12-base

Package: libcrypt1
Depends: libc6

Package: bash
Priority: required
Depends: base-files, debianutils | busybox

Package: debianutils

Package: busybox
`)

	got := Resolve([]string{"base-files", "bash"}, idx)
	resolved := make(map[string]bool)
	for _, name := range got {
		resolved[name] = true
	}

	for _, name := range got {
		for _, field := range []string{"Pre-Depends", "Depends"} {
			raw := idx.Field(name, field)
			if raw == "" {
				continue
			}
			for _, alts := range index.ParseDepends(raw) {
				ok := false
				for _, alt := range alts {
					if resolved[alt] || !idx.Exists(alt) {
						ok = true
						break
					}
				}
				if !ok {
					t.Errorf("package %s clause %v unsatisfied by %v", name, alts, got)
				}
			}
		}
	}

	seenOnce := make(map[string]int)
	for _, name := range got {
		seenOnce[name]++
	}
	for name, n := range seenOnce {
		if n > 1 {
			t.Errorf("package %s appears %d times in output", name, n)
		}
	}
}
