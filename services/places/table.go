// Package places resolves free-text country and city names to the numeric
// ids used by the search API.
package places

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Entry is one canonical name with its id.
type Entry struct {
	Name string
	ID   int
}

// Table is a reference mapping of canonical names to ids. Entry order is
// significant: it breaks ties between equally similar candidates.
type Table struct {
	entries []Entry
	byName  map[string]int
	byNorm  map[string]int
	norms   []string
}

// NewTable builds a table from entries in the given order.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
		byNorm:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := t.byName[e.Name]; dup {
			continue
		}
		t.byName[e.Name] = e.ID
		t.entries = append(t.entries, e)
		n := Normalize(e.Name)
		if _, seen := t.byNorm[n]; !seen {
			t.byNorm[n] = e.ID
			t.norms = append(t.norms, n)
		}
	}
	return t
}

// LoadTable reads a JSON object of name -> id, keeping the file's key order.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference table %s: %w", path, err)
	}
	entries, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("decode reference table %s: %w", path, err)
	}
	return NewTable(entries), nil
}

func decodeOrdered(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var id int
		if err := dec.Decode(&id); err != nil {
			return nil, fmt.Errorf("id of %v: %w", keyTok, err)
		}
		entries = append(entries, Entry{Name: keyTok.(string), ID: id})
	}
	return entries, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the entries in table order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Map returns the table as a plain map, e.g. for an LLM prompt.
func (t *Table) Map() map[string]int {
	if t == nil {
		return map[string]int{}
	}
	out := make(map[string]int, len(t.entries))
	for _, e := range t.entries {
		out[e.Name] = e.ID
	}
	return out
}

// ID returns the id of an exact canonical name.
func (t *Table) ID(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	id, ok := t.byName[name]
	return id, ok
}

// NameByID returns the first canonical name carrying id.
func (t *Table) NameByID(id int) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, e := range t.entries {
		if e.ID == id {
			return e.Name, true
		}
	}
	return "", false
}
