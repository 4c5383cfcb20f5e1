package motif

// Hierarchy is an ordered list of motif names, nearest scope first. Entry 0
// is the owner's local motif and is always present, even when empty.
type Hierarchy []string

// NewHierarchy builds a hierarchy from a local scope and its parents.
func NewHierarchy(local string, parents ...string) Hierarchy {
	h := make(Hierarchy, 0, 1+len(parents))
	h = append(h, local)
	return append(h, parents...)
}

// Local returns entry 0.
func (h Hierarchy) Local() string {
	if len(h) == 0 {
		return ""
	}
	return h[0]
}

// Parents returns every entry after the local scope.
func (h Hierarchy) Parents() []string {
	if len(h) <= 1 {
		return nil
	}
	return h[1:]
}

// WithLocal returns a copy with entry 0 replaced.
func (h Hierarchy) WithLocal(local string) Hierarchy {
	return NewHierarchy(local, h.Parents()...)
}

// WithParents returns a copy that keeps entry 0 and replaces everything else.
func (h Hierarchy) WithParents(parents []string) Hierarchy {
	return NewHierarchy(h.Local(), parents...)
}

// Resolve returns the effective text of attribute attr. If attr is not bound
// in vars the literal is returned. Otherwise the bound variable is looked up
// through hierarchy, falling back to literal when no scope defines it.
func Resolve(db *Database, hierarchy Hierarchy, vars map[string]string, attr, literal string) string {
	name, bound := vars[attr]
	if !bound {
		return literal
	}
	if v, ok := db.Lookup(hierarchy, name); ok {
		return v
	}
	return literal
}
