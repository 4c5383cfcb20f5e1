// Package event implements the custom condition and result extension points
// that steps reference by name.
//
// A [Registry] holds two ordered template tables, one for conditions and one
// for results. Steps bind [Instance] values to template slots when they are
// constructed, and fire them through a [Bus] while generating.
//
// # Concurrency
//
// Reading a Registry from several generations at once is safe. Mutating it
// (Add*/Remove*) is not synchronized: callers must only mutate between
// generation batches.
package event

import (
	"slices"
	"strings"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
)

// Requirement governs when a partially specified instance is attached to a step.
type Requirement int

const (
	// RequireAll attaches only when every attribute is present and non-empty.
	RequireAll Requirement = iota
	// RequireOne attaches when at least one attribute is present.
	RequireOne
	// RequireNone always attaches.
	RequireNone
)

// ParseRequirement parses "all", "one" or "none".
func ParseRequirement(text string) (Requirement, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "all":
		return RequireAll, nil
	case "one":
		return RequireOne, nil
	case "none":
		return RequireNone, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidDefinition, "unknown requirement %q (want all, one or none)", text)
}

func (r Requirement) String() string {
	switch r {
	case RequireAll:
		return "all"
	case RequireOne:
		return "one"
	case RequireNone:
		return "none"
	}
	return "unknown"
}

// Kind distinguishes condition templates from result templates.
type Kind int

const (
	Condition Kind = iota
	Result
)

func (k Kind) String() string {
	if k == Condition {
		return "condition"
	}
	return "result"
}

// Template describes one custom condition or result.
type Template struct {
	Name        string
	Requirement Requirement
	AttrNames   []string
	// AllowedValues is parallel to AttrNames; a nil entry accepts any value.
	AllowedValues [][]string
	Enabled       bool
	// Generation is assigned by the registry on every Add and identifies
	// this registration of the slot.
	Generation uint64
}

// Validate checks value against the allowed values of attribute i. Empty
// values are always accepted.
func (t *Template) Validate(i int, value string) error {
	if value == "" || i >= len(t.AllowedValues) || t.AllowedValues[i] == nil {
		return nil
	}
	if slices.Contains(t.AllowedValues[i], value) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidAttribute, "%s: %q is not an allowed value for %s (allowed: %s)",
		t.Name, value, t.AttrNames[i], strings.Join(t.AllowedValues[i], ", "))
}

// Satisfied reports whether values meet the template's requirement.
func (t *Template) Satisfied(values []string) bool {
	switch t.Requirement {
	case RequireNone:
		return true
	case RequireOne:
		for _, v := range values {
			if v != "" {
				return true
			}
		}
		return false
	default:
		if len(values) < len(t.AttrNames) {
			return false
		}
		for _, v := range values {
			if v == "" {
				return false
			}
		}
		return true
	}
}

// Registry is the table of custom condition and result templates.
// Indices returned by Add* stay stable: removal only disables a slot, and a
// disabled slot is reused by the next Add of the same kind.
type Registry struct {
	conditions []Template
	results    []Template
	generation uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddCondition registers a condition template and returns its slot index.
func (r *Registry) AddCondition(t Template) (int, error) {
	return r.add(&r.conditions, t)
}

// AddResult registers a result template and returns its slot index.
func (r *Registry) AddResult(t Template) (int, error) {
	return r.add(&r.results, t)
}

func (r *Registry) add(table *[]Template, t Template) (int, error) {
	if err := errors.ValidateName("custom event", t.Name); err != nil {
		return -1, err
	}
	for _, a := range t.AttrNames {
		if err := errors.ValidateName("attribute", a); err != nil {
			return -1, err
		}
	}
	if len(t.AllowedValues) > len(t.AttrNames) {
		return -1, errors.New(errors.ErrCodeInvalidDefinition, "%s: more allowed value lists than attributes", t.Name)
	}
	t.Enabled = true
	r.generation++
	t.Generation = r.generation
	for i := range *table {
		if !(*table)[i].Enabled {
			(*table)[i] = t
			return i, nil
		}
	}
	*table = append(*table, t)
	return len(*table) - 1, nil
}

// RemoveCondition disables the condition slot at index.
func (r *Registry) RemoveCondition(index int) {
	if index >= 0 && index < len(r.conditions) {
		r.conditions[index].Enabled = false
	}
}

// RemoveResult disables the result slot at index.
func (r *Registry) RemoveResult(index int) {
	if index >= 0 && index < len(r.results) {
		r.results[index].Enabled = false
	}
}

// Templates returns a copy of the table for kind, including disabled slots.
func (r *Registry) Templates(kind Kind) []Template {
	return slices.Clone(r.table(kind))
}

// Template returns the template in slot index.
func (r *Registry) Template(kind Kind, index int) (Template, bool) {
	table := r.table(kind)
	if index < 0 || index >= len(table) {
		return Template{}, false
	}
	return table[index], true
}

// Find returns the slot of the enabled template named name.
func (r *Registry) Find(kind Kind, name string) (int, bool) {
	for i, t := range r.table(kind) {
		if t.Enabled && t.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (r *Registry) table(kind Kind) []Template {
	if kind == Condition {
		return r.conditions
	}
	return r.results
}

// Instance is a template bound to concrete attribute values on one step.
type Instance struct {
	Kind   Kind
	Index  int
	Name   string
	Values []string
	// Generation is the registration of the slot the instance was bound to.
	Generation uint64
}

// NewInstance returns an instance for the template in slot index with all
// attribute values empty. t should come from the registry so that its
// Generation matches the slot.
func NewInstance(kind Kind, index int, t Template) *Instance {
	return &Instance{
		Kind:       kind,
		Index:      index,
		Name:       t.Name,
		Values:     make([]string, len(t.AttrNames)),
		Generation: t.Generation,
	}
}

// Live reports whether the instance's template slot is still enabled and has
// not been reused since the instance was bound, even by a template with the
// same name.
func (inst *Instance) Live(r *Registry) bool {
	t, ok := r.Template(inst.Kind, inst.Index)
	return ok && t.Enabled && t.Generation == inst.Generation && t.Name == inst.Name
}

// Attrs returns the instance values keyed by attribute name.
func (inst *Instance) Attrs(t Template) map[string]string {
	attrs := make(map[string]string, len(t.AttrNames))
	for i, name := range t.AttrNames {
		if i < len(inst.Values) {
			attrs[name] = inst.Values[i]
		}
	}
	return attrs
}
