package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownField = errors.New("unknown target field")

// Pair is one header assigned to one target field.
type Pair struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

// Mapping assigns spreadsheet headers to target fields one-to-one: a field is
// held by at most one header at any time. The zero value is not usable; use
// NewMapping.
type Mapping struct {
	allowed  map[string]bool
	byHeader map[string]string
	byField  map[string]string
	order    []string
}

// NewMapping returns an empty mapping restricted to the given fields. With no
// fields every non-empty field name is accepted.
func NewMapping(fields ...string) *Mapping {
	m := &Mapping{
		byHeader: make(map[string]string),
		byField:  make(map[string]string),
	}
	if len(fields) > 0 {
		m.allowed = make(map[string]bool, len(fields))
		for _, field := range fields {
			m.allowed[field] = true
		}
	}
	return m
}

// Set assigns field to header. A field already held by another header is
// taken away from it first, so the assignment behaves like a swap. An empty
// field removes the header's entry.
func (m *Mapping) Set(header, field string) error {
	if field == "" {
		m.Unset(header)
		return nil
	}
	if m.allowed != nil && !m.allowed[field] {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	if holder, ok := m.byField[field]; ok {
		if holder == header {
			return nil
		}
		m.Unset(holder)
	}
	if previous, ok := m.byHeader[header]; ok {
		delete(m.byField, previous)
	} else {
		m.order = append(m.order, header)
	}

	m.byHeader[header] = field
	m.byField[field] = header
	return nil
}

func (m *Mapping) Unset(header string) {
	field, ok := m.byHeader[header]
	if !ok {
		return
	}
	delete(m.byHeader, header)
	delete(m.byField, field)
	for i, candidate := range m.order {
		if candidate == header {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Mapping) Get(header string) (string, bool) {
	field, ok := m.byHeader[header]
	return field, ok
}

// HeaderFor returns the header currently holding field.
func (m *Mapping) HeaderFor(field string) (string, bool) {
	header, ok := m.byField[field]
	return header, ok
}

func (m *Mapping) Has(field string) bool {
	_, ok := m.byField[field]
	return ok
}

func (m *Mapping) Len() int {
	return len(m.byHeader)
}

// Pairs returns the assignments in the order headers were first mapped.
func (m *Mapping) Pairs() []Pair {
	out := make([]Pair, 0, len(m.order))
	for _, header := range m.order {
		out = append(out, Pair{Header: header, Field: m.byHeader[header]})
	}
	return out
}

// Values returns the mapped fields in pair order.
func (m *Mapping) Values() []string {
	out := make([]string, 0, len(m.order))
	for _, header := range m.order {
		out = append(out, m.byHeader[header])
	}
	return out
}

// Map returns a plain header to field copy.
func (m *Mapping) Map() map[string]string {
	out := make(map[string]string, len(m.byHeader))
	for header, field := range m.byHeader {
		out[header] = field
	}
	return out
}

func (m *Mapping) Clone() *Mapping {
	clone := &Mapping{
		allowed:  m.allowed,
		byHeader: make(map[string]string, len(m.byHeader)),
		byField:  make(map[string]string, len(m.byField)),
		order:    append([]string(nil), m.order...),
	}
	for header, field := range m.byHeader {
		clone.byHeader[header] = field
		clone.byField[field] = header
	}
	return clone
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// Sanitize rebuilds a one-to-one mapping from a plain dictionary that may
// hold the same field under several headers. Headers are visited in
// knownHeaders order, then any remaining headers in sorted order; the first
// header claiming a field keeps it. Empty values and fields outside catalog
// are dropped.
func Sanitize(raw map[string]string, knownHeaders []string, catalog []string) *Mapping {
	out := NewMapping(catalog...)
	visited := make(map[string]bool, len(raw))

	claim := func(header string) {
		if visited[header] {
			return
		}
		visited[header] = true
		field, ok := raw[header]
		if !ok || field == "" || out.Has(field) {
			return
		}
		_ = out.Set(header, field)
	}

	for _, header := range knownHeaders {
		claim(header)
	}

	rest := make([]string, 0, len(raw))
	for header := range raw {
		if !visited[header] {
			rest = append(rest, header)
		}
	}
	sort.Strings(rest)
	for _, header := range rest {
		claim(header)
	}

	return out
}
