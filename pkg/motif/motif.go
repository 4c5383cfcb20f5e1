// Package motif implements named variable scopes and the lookup that lets any
// step attribute be either a literal or a reference to a motif variable.
//
// A step carries an ordered [Hierarchy] of motif names, nearest scope first.
// Entry 0 is always the step's own local motif (possibly empty). When an
// attribute is bound to a variable, [Resolve] walks the hierarchy and returns
// the first scope's definition of that variable, falling back to the
// attribute's literal value when no scope defines it.
package motif

import (
	"sort"
	"strings"
	"sync"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
)

// VarDelim wraps a variable name in serialized attribute text, as in "%floor%".
const VarDelim = "%"

// ParseVar reports whether text is a variable token and returns its name.
func ParseVar(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 3 || !strings.HasPrefix(text, VarDelim) || !strings.HasSuffix(text, VarDelim) {
		return "", false
	}
	name := text[len(VarDelim) : len(text)-len(VarDelim)]
	if strings.Contains(name, VarDelim) {
		return "", false
	}
	return name, true
}

// FormatVar returns the token for variable name.
func FormatVar(name string) string {
	return VarDelim + name + VarDelim
}

// Motif is a named scope of variable definitions.
type Motif struct {
	Name string
	Vars map[string]string
}

// New returns an empty motif.
func New(name string) *Motif {
	return &Motif{Name: name, Vars: make(map[string]string)}
}

// Set defines variable name in this scope.
func (m *Motif) Set(name, value string) {
	if m.Vars == nil {
		m.Vars = make(map[string]string)
	}
	m.Vars[name] = value
}

// Unset removes variable name from this scope.
func (m *Motif) Unset(name string) {
	delete(m.Vars, name)
}

// Lookup returns the value of variable name in this scope.
func (m *Motif) Lookup(name string) (string, bool) {
	v, ok := m.Vars[name]
	return v, ok
}

// VarNames returns the variable names defined by this motif, sorted.
func (m *Motif) VarNames() []string {
	names := make([]string, 0, len(m.Vars))
	for n := range m.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Database holds every known motif by name. It is safe for concurrent use.
type Database struct {
	mu     sync.RWMutex
	motifs map[string]*Motif
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{motifs: make(map[string]*Motif)}
}

// Add registers m, replacing any motif with the same name.
func (db *Database) Add(m *Motif) error {
	if err := errors.ValidateName("motif", m.Name); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.motifs[m.Name] = m
	return nil
}

// Remove deletes the named motif.
func (db *Database) Remove(name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.motifs, name)
}

// Get returns the named motif.
func (db *Database) Get(name string) (*Motif, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	m, ok := db.motifs[name]
	return m, ok
}

// SetVar defines a variable in the named motif, creating the motif if needed.
func (db *Database) SetVar(motifName, varName, value string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.motifs[motifName]
	if !ok {
		m = New(motifName)
		db.motifs[motifName] = m
	}
	m.Set(varName, value)
}

// UnsetVar removes a variable from the named motif.
func (db *Database) UnsetVar(motifName, varName string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if m, ok := db.motifs[motifName]; ok {
		m.Unset(varName)
	}
}

// Names returns all motif names, sorted.
func (db *Database) Names() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.motifs))
	for n := range db.motifs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup searches hierarchy nearest-first for variable name. Empty or
// unknown motif names are skipped.
func (db *Database) Lookup(hierarchy Hierarchy, name string) (string, bool) {
	if db == nil {
		return "", false
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, scope := range hierarchy {
		if scope == "" {
			continue
		}
		m, ok := db.motifs[scope]
		if !ok {
			continue
		}
		if v, ok := m.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}
