package tile

import (
	"sort"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
)

// Tags is the set of tags on a single cell. The zero value is an empty set.
type Tags struct {
	set   mapset.Set[string]
	ready bool
}

func (t *Tags) init() {
	if !t.ready {
		t.set = mapset.New[string]()
		t.ready = true
	}
}

// Add inserts tag.
func (t *Tags) Add(tag string) {
	t.init()
	t.set.Put(tag)
}

// Remove deletes tag if present.
func (t *Tags) Remove(tag string) {
	if t.ready {
		t.set.Remove(tag)
	}
}

// Has reports whether tag is present.
func (t *Tags) Has(tag string) bool {
	return t.ready && t.set.Has(tag)
}

// Len returns the number of tags.
func (t *Tags) Len() int {
	if !t.ready {
		return 0
	}
	return t.set.Size()
}

// Sorted returns the tags in lexical order.
func (t *Tags) Sorted() []string {
	out := make([]string, 0, t.Len())
	if t.ready {
		t.set.Each(func(tag string) { out = append(out, tag) })
	}
	sort.Strings(out)
	return out
}

// TagSet is a parsed tag expression such as "wet,!burning": tags that must be
// present (or are added) and tags that must be absent (or are removed).
type TagSet struct {
	Include []string
	Exclude []string
}

// ParseTagSet parses a comma-separated tag list where a '!' prefix marks a
// tag as excluded.
func ParseTagSet(text string) (TagSet, error) {
	var ts TagSet
	for _, raw := range strings.Split(text, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		exclude := strings.HasPrefix(tag, "!")
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "!"))
		if err := errors.ValidateName("tag", tag); err != nil {
			return TagSet{}, errors.Wrap(errors.ErrCodeInvalidAttribute, err, "invalid tag list %q", text)
		}
		if exclude {
			ts.Exclude = append(ts.Exclude, tag)
		} else {
			ts.Include = append(ts.Include, tag)
		}
	}
	return ts, nil
}

// Empty reports whether the set names no tags.
func (ts TagSet) Empty() bool {
	return len(ts.Include) == 0 && len(ts.Exclude) == 0
}

// Matches reports whether every included tag is present and every excluded
// tag is absent.
func (ts TagSet) Matches(tags *Tags) bool {
	for _, tag := range ts.Include {
		if !tags.Has(tag) {
			return false
		}
	}
	for _, tag := range ts.Exclude {
		if tags.Has(tag) {
			return false
		}
	}
	return true
}

// Apply adds the included tags and removes the excluded ones.
func (ts TagSet) Apply(tags *Tags) {
	for _, tag := range ts.Include {
		tags.Add(tag)
	}
	for _, tag := range ts.Exclude {
		tags.Remove(tag)
	}
}

// String formats the set in attribute syntax.
func (ts TagSet) String() string {
	parts := make([]string, 0, len(ts.Include)+len(ts.Exclude))
	parts = append(parts, ts.Include...)
	for _, tag := range ts.Exclude {
		parts = append(parts, "!"+tag)
	}
	return strings.Join(parts, ",")
}
