package step

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/motif"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
)

// AllAttributes is the wildcard accepted by [Base.Recalculate].
const AllAttributes = "*"

// attribute is one named, motif-resolvable step field. literal holds the
// text used when the attribute is not bound to a motif variable, or when no
// scope defines the bound variable.
type attribute struct {
	name     string
	dflt     string
	literal  string
	required bool
	setters  []func(text string) error
	checks   []func() error
}

// candidate is a custom event instance that attaches to the step whenever
// its values satisfy the template's requirement.
type candidate struct {
	tmpl event.Template
	inst *event.Instance
}

// bind registers attribute name with a default and a setter that parses the
// resolved text into a typed field. Binding an existing name chains setters.
func (b *Base) bind(name, dflt string, set func(text string) error) *attribute {
	if a, ok := b.attrIndex[name]; ok {
		a.setters = append(a.setters, set)
		return a
	}
	a := &attribute{name: name, dflt: dflt, literal: dflt, setters: []func(string) error{set}}
	b.attrs = append(b.attrs, a)
	b.attrIndex[name] = a
	return a
}

func (b *Base) setCheck(name string, check func() error) {
	if a, ok := b.attrIndex[name]; ok {
		a.checks = append(a.checks, check)
	}
}

// Require marks an attribute as required: resolving it to empty text is a
// fatal MISSING_ATTRIBUTE error.
func (b *Base) Require(name string) {
	if a, ok := b.attrIndex[name]; ok {
		a.required = true
	}
}

// IntRange binds an integer range attribute.
func (b *Base) IntRange(name, dflt string, dst *ranges.Int) {
	b.bind(name, dflt, func(text string) error {
		if text == "" {
			*dst = ranges.Int{}
			return nil
		}
		r, err := ranges.ParseInt(text)
		if err != nil {
			return err
		}
		*dst = r
		return nil
	})
}

// RadiusRange binds a radius-like range where "N" means 1~N.
func (b *Base) RadiusRange(name, dflt string, dst *ranges.Int) {
	b.bind(name, dflt, func(text string) error {
		r, err := ranges.ParseRadius(text)
		if err != nil {
			return err
		}
		*dst = r
		return nil
	})
}

// FloatRange binds a float range attribute.
func (b *Base) FloatRange(name, dflt string, dst *ranges.Float) {
	b.bind(name, dflt, func(text string) error {
		if text == "" {
			*dst = ranges.Float{}
			return nil
		}
		r, err := ranges.ParseFloat(text)
		if err != nil {
			return err
		}
		*dst = r
		return nil
	})
}

// Float binds a single float attribute.
func (b *Base) Float(name, dflt string, dst *float64) {
	b.bind(name, dflt, func(text string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidAttribute, err, "malformed number %q", text)
		}
		*dst = v
		return nil
	})
}

// Bool binds a boolean attribute.
func (b *Base) Bool(name, dflt string, dst *bool) {
	b.bind(name, dflt, func(text string) error {
		v, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidAttribute, err, "malformed boolean %q", text)
		}
		*dst = v
		return nil
	})
}

// String binds a free text attribute.
func (b *Base) String(name, dflt string, dst *string) {
	b.bind(name, dflt, func(text string) error {
		*dst = strings.TrimSpace(text)
		return nil
	})
}

// TileType binds a tile type attribute; empty text means unset.
func (b *Base) TileType(name, dflt string, dst **tile.Definition) {
	b.bind(name, dflt, func(text string) error {
		text = strings.TrimSpace(text)
		if text == "" {
			*dst = nil
			return nil
		}
		d, err := b.env.Tiles.MustLookup(text)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	})
}

// Tags binds a tag expression attribute.
func (b *Base) Tags(name, dflt string, dst *tile.TagSet) {
	b.bind(name, dflt, func(text string) error {
		ts, err := tile.ParseTagSet(text)
		if err != nil {
			return err
		}
		*dst = ts
		return nil
	})
}

// Movement binds a movement type attribute.
func (b *Base) Movement(name, dflt string, dst *tile.Movement) {
	b.bind(name, dflt, func(text string) error {
		mv, err := tile.ParseMovement(text)
		if err != nil {
			return err
		}
		*dst = mv
		return nil
	})
}

func checkProbability(name string, p float64) error {
	if p < 0 || p > 1 {
		return errors.New(errors.ErrCodeInvalidAttribute, "%s must be within 0~1, got %v", name, p)
	}
	return nil
}

// heatAttr registers an ifHeatMap<Name> or setHeatMap<Name> attribute.
func (b *Base) heatAttr(key string) (*attribute, bool, error) {
	var prefix string
	var target map[string]ranges.Float
	switch {
	case strings.HasPrefix(key, PrefixIfHeatMap):
		prefix, target = PrefixIfHeatMap, b.IfHeatMap
	case strings.HasPrefix(key, PrefixSetHeatMap):
		prefix, target = PrefixSetHeatMap, b.SetHeatMap
	default:
		return nil, false, nil
	}
	name := strings.TrimPrefix(key, prefix)
	if err := errors.ValidateName("heat map", name); err != nil {
		return nil, true, err
	}
	a := b.bind(key, "", func(text string) error {
		if text == "" {
			delete(target, name)
			return nil
		}
		r, err := ranges.ParseFloat(text)
		if err != nil {
			return err
		}
		target[name] = r
		return nil
	})
	return a, true, nil
}

// bindCustomEvents registers the attributes of every enabled custom event
// template so the step can parse them from its source.
func (b *Base) bindCustomEvents() {
	reg := b.env.Events
	for _, kind := range []event.Kind{event.Condition, event.Result} {
		for i, tmpl := range reg.Templates(kind) {
			if !tmpl.Enabled {
				continue
			}
			c := &candidate{tmpl: tmpl, inst: event.NewInstance(kind, i, tmpl)}
			b.candidates = append(b.candidates, c)
			for j, attrName := range tmpl.AttrNames {
				b.bind(attrName, "", func(text string) error {
					if err := c.tmpl.Validate(j, text); err != nil {
						return err
					}
					c.inst.Values[j] = text
					return nil
				})
			}
		}
	}
}

func (b *Base) refreshCustomEvents() {
	b.CustomConditions = b.CustomConditions[:0]
	b.CustomResults = b.CustomResults[:0]
	for _, c := range b.candidates {
		if !c.tmpl.Satisfied(c.inst.Values) {
			continue
		}
		if c.inst.Kind == event.Condition {
			b.CustomConditions = append(b.CustomConditions, c.inst)
		} else {
			b.CustomResults = append(b.CustomResults, c.inst)
		}
	}
}

func (b *Base) attribute(name string) (*attribute, error) {
	if a, ok := b.attrIndex[name]; ok {
		return a, nil
	}
	a, isHeat, err := b.heatAttr(name)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", name, err)
	}
	if !isHeat {
		return nil, errors.New(errors.ErrCodeInvalidAttribute, "unknown attribute %q for step kind %s", name, b.kind)
	}
	return a, nil
}

// load applies a declarative source to the registered attributes.
func (b *Base) load(src Source) error {
	keys := slices.Sorted(maps.Keys(src))
	for _, key := range keys {
		a, err := b.attribute(key)
		if err != nil {
			return err
		}
		b.assign(a, src[key])
	}
	if _, bound := b.motifVars[AttrMotif]; bound {
		return errors.New(errors.ErrCodeInvalidAttribute, "attribute %s cannot be bound to a motif variable", AttrMotif)
	}
	return nil
}

func (b *Base) assign(a *attribute, text string) {
	if name, ok := motif.ParseVar(text); ok {
		b.motifVars[a.name] = name
		return
	}
	delete(b.motifVars, a.name)
	a.literal = text
}

func (b *Base) resolve(a *attribute) error {
	text := motif.Resolve(b.env.Motifs, b.hierarchy, b.motifVars, a.name, a.literal)
	if strings.TrimSpace(text) == "" {
		text = a.dflt
	}
	if a.required && strings.TrimSpace(text) == "" {
		return errors.New(errors.ErrCodeMissingAttribute, "required attribute %s is missing", a.name)
	}
	for _, set := range a.setters {
		if err := set(text); err != nil {
			return fmt.Errorf("attribute %s: %w", a.name, err)
		}
	}
	for _, check := range a.checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Recalculate re-resolves attribute name through the motif hierarchy, or
// every attribute when name is [AllAttributes]. Changing the local motif
// recalculates everything.
func (b *Base) Recalculate(name string) error {
	if name == AllAttributes || name == AttrMotif {
		if err := b.resolve(b.attrIndex[AttrMotif]); err != nil {
			return err
		}
		for _, a := range b.attrs {
			if a.name == AttrMotif {
				continue
			}
			if err := b.resolve(a); err != nil {
				return err
			}
		}
	} else {
		a, ok := b.attrIndex[name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidAttribute, "unknown attribute %q for step kind %s", name, b.kind)
		}
		if err := b.resolve(a); err != nil {
			return err
		}
	}
	b.refreshCustomEvents()
	b.refreshHeatNames()
	return nil
}

// SetAttribute changes one attribute's declarative text, which may be a
// literal or a "%var%" token, and recalculates it.
func (b *Base) SetAttribute(name, text string) error {
	a, err := b.attribute(name)
	if err != nil {
		return err
	}
	if _, isVar := motif.ParseVar(text); isVar && name == AttrMotif {
		return errors.New(errors.ErrCodeInvalidAttribute, "attribute %s cannot be bound to a motif variable", AttrMotif)
	}
	undo := b.snapshot(a)
	b.assign(a, text)
	if err := b.Recalculate(name); err != nil {
		undo()
		return err
	}
	return nil
}

// snapshot records a's literal and motif binding and returns a function
// that restores them and re-resolves the step. A rejected edit leaves the
// step as it was.
func (b *Base) snapshot(a *attribute) func() {
	literal := a.literal
	varName, bound := b.motifVars[a.name]
	return func() {
		a.literal = literal
		if bound {
			b.motifVars[a.name] = varName
		} else {
			delete(b.motifVars, a.name)
		}
		_ = b.Recalculate(AllAttributes)
	}
}

// BindMotifVar indirects attribute attr through motif variable varName.
func (b *Base) BindMotifVar(attr, varName string) error {
	return b.SetAttribute(attr, motif.FormatVar(varName))
}

// UnbindMotifVar makes attribute attr use its literal value again.
func (b *Base) UnbindMotifVar(attr string) error {
	if _, ok := b.attrIndex[attr]; !ok {
		return errors.New(errors.ErrCodeInvalidAttribute, "unknown attribute %q for step kind %s", attr, b.kind)
	}
	undo := b.snapshot(b.attrIndex[attr])
	delete(b.motifVars, attr)
	if err := b.Recalculate(attr); err != nil {
		undo()
		return err
	}
	return nil
}

// SetLocalMotif replaces the step's own motif scope (hierarchy entry 0).
func (b *Base) SetLocalMotif(name string) error {
	return b.SetAttribute(AttrMotif, name)
}

// SetParentMotifs replaces every hierarchy entry except the local scope and
// recalculates all attributes.
func (b *Base) SetParentMotifs(parents []string) error {
	prev := b.hierarchy
	b.hierarchy = b.hierarchy.WithParents(parents)
	if err := b.Recalculate(AllAttributes); err != nil {
		b.hierarchy = prev
		_ = b.Recalculate(AllAttributes)
		return err
	}
	return nil
}

// Hierarchy returns a copy of the step's motif scope chain, nearest first.
func (b *Base) Hierarchy() motif.Hierarchy {
	return slices.Clone(b.hierarchy)
}

// MotifVars returns a copy of the attribute to variable bindings.
func (b *Base) MotifVars() map[string]string {
	return maps.Clone(b.motifVars)
}

// AttributeNames returns every attribute the step understands, sorted.
func (b *Base) AttributeNames() []string {
	names := make([]string, 0, len(b.attrs))
	for _, a := range b.attrs {
		names = append(names, a.name)
	}
	sort.Strings(names)
	return names
}

// Attributes serializes the step into its declarative source. Bound
// attributes are written as "%var%" tokens; literals equal to the default
// are omitted.
func (b *Base) Attributes() Source {
	out := make(Source)
	for _, a := range b.attrs {
		if v, bound := b.motifVars[a.name]; bound {
			out[a.name] = motif.FormatVar(v)
			continue
		}
		if a.literal != "" && a.literal != a.dflt {
			out[a.name] = a.literal
		}
	}
	return out
}
