package render

import (
	"bytes"
	"math"

	"github.com/ddurio/ProMage2-sub001/pkg/step"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

const (
	heatAbsent    = '.'
	heatUnreached = '*'
)

// Text renders the map with one glyph per cell. Rows are newline terminated.
func Text(m *tilemap.Map) []byte {
	var buf bytes.Buffer
	buf.Grow((m.Width() + 1) * m.Height())
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			buf.WriteRune(glyph(m.At(x, y)))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// HeatMapText renders the named heat map as digits 0-9, scaled between the
// smallest and largest values present. Cells without a value print '.',
// cells a distance field never reached print '*'.
func HeatMapText(m *tilemap.Map, name string) []byte {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < m.Len(); i++ {
		v, ok := m.Tile(i).Heat(name)
		if !ok || v >= step.Unreached {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var buf bytes.Buffer
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			v, ok := m.At(x, y).Heat(name)
			switch {
			case !ok:
				buf.WriteByte(heatAbsent)
			case v >= step.Unreached:
				buf.WriteByte(heatUnreached)
			default:
				buf.WriteByte('0' + bucket(v, lo, hi))
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func bucket(v, lo, hi float64) byte {
	if hi <= lo {
		return 0
	}
	b := int((v - lo) / (hi - lo) * 10)
	return byte(min(max(b, 0), 9))
}

func glyph(t *tilemap.Tile) rune {
	if t.Type == nil {
		return ' '
	}
	return t.Type.Rune()
}
