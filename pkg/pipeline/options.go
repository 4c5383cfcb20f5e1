package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ddurio/ProMage2-sub001/pkg/cache"
	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultCount is the default number of maps generated per execution.
	DefaultCount = 1

	// DefaultFormat is the default artifact format.
	DefaultFormat = FormatText
)

// Format constants for output formats.
const (
	FormatText = "txt"
	FormatHeat = "heat"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatHeat: true,
	FormatJSON: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one generation request.
type Options struct {
	// Map is the name of the map definition to generate.
	Map string `json:"map"`

	// Seed seeds the map's random source. Batches use Seed, Seed+1, ...
	// A zero Seed means DefaultSeed unless SeedSet is true.
	Seed    uint64 `json:"seed"`
	SeedSet bool   `json:"-"`

	// Count is the number of maps [Runner.ExecuteBatch] generates.
	Count int `json:"count,omitempty"`

	// Formats lists the artifacts to render.
	Formats []string `json:"formats,omitempty"`

	// HeatMap names the heat map rendered by the "heat" format.
	HeatMap string `json:"heat_map,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of one generation.
type Result struct {
	// Map is the generated map. It is nil when every artifact came from
	// the cache.
	Map *tilemap.Map

	// Seed is the seed the map was generated with.
	Seed uint64

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains generation statistics.
type Stats struct {
	Steps        int
	Width        int
	Height       int
	BuildTime    time.Duration
	GenerateTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache usage.
type CacheInfo struct {
	Hit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: txt, heat, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Map == "" {
		return errors.New(errors.ErrCodeInvalidInput, "map is required")
	}
	if o.Seed == 0 && !o.SeedSet {
		o.Seed = DefaultSeed
	}
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.Count < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "count must be positive, got %d", o.Count)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.HasFormat(FormatHeat) && o.HeatMap == "" {
		return errors.New(errors.ErrCodeInvalidInput, "format %q requires a heat map name", FormatHeat)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// HasFormat reports whether format is requested.
func (o *Options) HasFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// MapKeyOpts returns cache key options for one artifact format.
func (o *Options) MapKeyOpts(format string) cache.MapKeyOpts {
	opts := cache.MapKeyOpts{Seed: o.Seed, Format: format}
	if format == FormatHeat {
		opts.HeatMap = o.HeatMap
	}
	return opts
}
