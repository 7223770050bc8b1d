package index

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Stanza is one package paragraph of a Packages index. Fields keeps the
// first occurrence of each field name; field names are case-sensitive as
// written by the archive software.
type Stanza struct {
	Name   string
	Fields map[string]string
}

// Packages is a parsed Packages index. Stanza lookup is by package name;
// order reflects the index so enumeration stays deterministic.
type Packages struct {
	order   []string
	stanzas map[string]*Stanza
}

// ParsePackages reads a stanza-oriented Packages index. Stanzas are
// blank-line delimited; continuation lines (leading whitespace) fold
// into the preceding field. When a name appears twice the first stanza
// wins.
func ParsePackages(r io.Reader) (*Packages, error) {
	idx := &Packages{
		stanzas: make(map[string]*Stanza),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var cur *Stanza
	var lastField string
	flush := func() {
		if cur == nil {
			return
		}
		if cur.Name != "" {
			if _, dup := idx.stanzas[cur.Name]; !dup {
				idx.order = append(idx.order, cur.Name)
				idx.stanzas[cur.Name] = cur
			}
		}
		cur = nil
		lastField = ""
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			// Continuation of the previous field.
			if cur != nil && lastField != "" {
				cur.Fields[lastField] += "\n" + strings.TrimSpace(line)
			}
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("unparseable Packages line: %q", line)
		}
		if cur == nil {
			cur = &Stanza{Fields: make(map[string]string)}
		}
		lastField = name
		if _, seen := cur.Fields[name]; !seen {
			cur.Fields[name] = strings.TrimSpace(value)
		}
		if name == "Package" && cur.Name == "" {
			cur.Name = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading Packages: %w", err)
	}
	flush()

	return idx, nil
}

// Exists reports whether a stanza exists for name. Virtual names, which
// only ever appear in Provides fields, do not exist.
func (p *Packages) Exists(name string) bool {
	_, ok := p.stanzas[name]
	return ok
}

// Required enumerates the names of all Priority: required stanzas in
// index order.
func (p *Packages) Required() []string {
	var names []string
	for _, name := range p.order {
		if p.stanzas[name].Fields["Priority"] == "required" {
			names = append(names, name)
		}
	}
	return names
}

// Field returns the value of a field in name's stanza, or empty when the
// package or the field is absent.
func (p *Packages) Field(name, field string) string {
	s, ok := p.stanzas[name]
	if !ok {
		return ""
	}
	return s.Fields[field]
}

// Len returns the number of stanzas.
func (p *Packages) Len() int {
	return len(p.order)
}
