// Package ranges parses, formats and samples the numeric range attributes
// used throughout step definitions.
//
// A range is written "min~max". A single value "N" is shorthand for the
// degenerate range N~N, except for radius-like fields parsed with
// [ParseRadius], where "N" means 1~N.
package ranges

import (
	"strconv"
	"strings"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/rng"
)

// Separator splits the bounds of a range.
const Separator = "~"

// Int is an inclusive integer range.
type Int struct {
	Min int
	Max int
}

// Float is an inclusive floating point range.
type Float struct {
	Min float64
	Max float64
}

// IntOf returns the degenerate range v~v.
func IntOf(v int) Int { return Int{Min: v, Max: v} }

// FloatOf returns the degenerate range v~v.
func FloatOf(v float64) Float { return Float{Min: v, Max: v} }

// ParseInt parses "N" or "min~max".
func ParseInt(text string) (Int, error) {
	lo, hi, single, err := split(text)
	if err != nil {
		return Int{}, err
	}
	minV, err := strconv.Atoi(lo)
	if err != nil {
		return Int{}, errors.Wrap(errors.ErrCodeInvalidRange, err, "malformed range %q", text)
	}
	if single {
		return IntOf(minV), nil
	}
	maxV, err := strconv.Atoi(hi)
	if err != nil {
		return Int{}, errors.Wrap(errors.ErrCodeInvalidRange, err, "malformed range %q", text)
	}
	if minV > maxV {
		return Int{}, errors.New(errors.ErrCodeInvalidRange, "range %q has min greater than max", text)
	}
	return Int{Min: minV, Max: maxV}, nil
}

// ParseRadius parses a radius-like range, where a lone "N" expands to 1~N.
func ParseRadius(text string) (Int, error) {
	r, err := ParseInt(text)
	if err != nil {
		return Int{}, err
	}
	if !strings.Contains(text, Separator) {
		r.Min = 1
		if r.Max < 1 {
			return Int{}, errors.New(errors.ErrCodeInvalidRange, "radius %q must be at least 1", text)
		}
	}
	return r, nil
}

// ParseFloat parses "N" or "min~max".
func ParseFloat(text string) (Float, error) {
	lo, hi, single, err := split(text)
	if err != nil {
		return Float{}, err
	}
	minV, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return Float{}, errors.Wrap(errors.ErrCodeInvalidRange, err, "malformed range %q", text)
	}
	if single {
		return FloatOf(minV), nil
	}
	maxV, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return Float{}, errors.Wrap(errors.ErrCodeInvalidRange, err, "malformed range %q", text)
	}
	if minV > maxV {
		return Float{}, errors.New(errors.ErrCodeInvalidRange, "range %q has min greater than max", text)
	}
	return Float{Min: minV, Max: maxV}, nil
}

func split(text string) (lo, hi string, single bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false, errors.New(errors.ErrCodeInvalidRange, "empty range")
	}
	parts := strings.Split(text, Separator)
	switch len(parts) {
	case 1:
		return parts[0], "", true, nil
	case 2:
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), false, nil
	default:
		return "", "", false, errors.New(errors.ErrCodeInvalidRange, "malformed range %q", text)
	}
}

// Draw returns a value in [Min, Max]. It always consumes one draw.
func (r Int) Draw(src *rng.Source) int {
	return src.IntInRange(r.Min, r.Max)
}

// Contains reports whether v lies in [Min, Max].
func (r Int) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// String formats the range in attribute syntax.
func (r Int) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return strconv.Itoa(r.Min) + Separator + strconv.Itoa(r.Max)
}

// Draw returns a value in [Min, Max]. It always consumes one draw.
func (r Float) Draw(src *rng.Source) float64 {
	return src.FloatInRange(r.Min, r.Max)
}

// Contains reports whether v lies in [Min, Max].
func (r Float) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp limits v to [Min, Max].
func (r Float) Clamp(v float64) float64 {
	return min(max(v, r.Min), r.Max)
}

// String formats the range in attribute syntax.
func (r Float) String() string {
	lo := strconv.FormatFloat(r.Min, 'g', -1, 64)
	if r.Min == r.Max {
		return lo
	}
	return lo + Separator + strconv.FormatFloat(r.Max, 'g', -1, 64)
}
