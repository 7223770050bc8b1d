package index

import "strings"

// ParseDepends splits a raw Depends/Pre-Depends value into clauses of
// alternative package names. Version parenthesizations, architecture
// qualifier brackets and multiarch suffixes are stripped; version
// constraints are intentionally ignored (the suite snapshot is assumed
// internally consistent). Empty clauses and alternatives vanish.
func ParseDepends(raw string) [][]string {
	var clauses [][]string
	for _, clause := range strings.Split(raw, ",") {
		var alts []string
		for _, alt := range strings.Split(clause, "|") {
			if name := altName(alt); name != "" {
				alts = append(alts, name)
			}
		}
		if len(alts) > 0 {
			clauses = append(clauses, alts)
		}
	}
	return clauses
}

// CanonicalDepends renders clauses back into the canonical textual form:
// alternatives joined by " | ", clauses by ", ". Parsing the output and
// re-serializing it is a fixed point.
func CanonicalDepends(clauses [][]string) string {
	parts := make([]string, 0, len(clauses))
	for _, alts := range clauses {
		parts = append(parts, strings.Join(alts, " | "))
	}
	return strings.Join(parts, ", ")
}

// altName reduces one alternative to its bare package name: drops
// "(>= 1.2)" version constraints, "[amd64]" architecture qualifiers,
// "<!nocheck>" build profiles and ":any" style multiarch suffixes.
func altName(alt string) string {
	alt = stripGroup(alt, '(', ')')
	alt = stripGroup(alt, '[', ']')
	alt = stripGroup(alt, '<', '>')
	alt = strings.TrimSpace(alt)
	if alt == "" {
		return ""
	}
	name := strings.Fields(alt)[0]
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name
}

// stripGroup removes every open..close span from s.
func stripGroup(s string, open, close byte) string {
	for {
		i := strings.IndexByte(s, open)
		if i < 0 {
			return s
		}
		j := strings.IndexByte(s[i:], close)
		if j < 0 {
			return s[:i]
		}
		s = s[:i] + s[i+j+1:]
	}
}
