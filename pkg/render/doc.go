// Package render turns generated tile maps into output artifacts.
//
// # Formats
//
//   - [Text]: one glyph per cell, one line per row
//   - [Styled]: like Text, colored for terminals with lipgloss
//   - [HeatMapText]: one digit per cell showing a named heat map
//   - [JSON]: the full cell state, including tags and heat values
//
// Every renderer is a pure function of the map, so equal maps render to
// equal bytes. The pipeline cache relies on this.
//
// # Pipeline Diagrams
//
// The [diagram] subpackage renders the structure of a map pipeline (its
// steps, motifs and custom events) as a Graphviz graph.
package render
