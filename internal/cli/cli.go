// Package cli implements the promage command-line interface.
//
// # Commands
//
//   - generate: Generate maps from definition files and write artifacts
//   - validate: Build every map pipeline and report problems
//   - graph: Render a map pipeline as a DOT or SVG diagram
//   - events: List the custom conditions and results a definition registers
//   - cache: Manage the artifact cache
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Step
// warnings (such as exhausted retry budgets) are logged at warn level.
//
// # Environment
//
// PROMAGE_SEED, PROMAGE_TILES, PROMAGE_CACHE_DIR and PROMAGE_NO_CACHE
// supply defaults for the matching flags. NO_COLOR disables the colored map
// preview.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ddurio/ProMage2-sub001/pkg/buildinfo"
	"github.com/ddurio/ProMage2-sub001/pkg/cache"
	"github.com/ddurio/ProMage2-sub001/pkg/definition"
	"github.com/ddurio/ProMage2-sub001/pkg/pipeline"
	"github.com/ddurio/ProMage2-sub001/pkg/step"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "promage"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output (previews, listings, DOT).
	Out io.Writer

	env envConfig

	// pick chooses a map when several are defined and --map is empty. It is
	// nil when the terminal is not interactive.
	pick mapPicker
}

// New creates a new CLI instance with a default logger. Environment
// settings that fail to parse are logged and ignored.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level), Out: os.Stdout, pick: terminalPicker()}
	cfg, err := loadEnvConfig()
	if err != nil {
		c.Logger.Warn("ignoring environment", "error", err)
	}
	c.env = cfg
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped by
// program version.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.CacheScope())
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || c.env.NoCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns PROMAGE_CACHE_DIR if set, otherwise the XDG cache
// directory (~/.cache/promage/).
func (c *CLI) cacheDir() (string, error) {
	if c.env.CacheDir != "" {
		return c.env.CacheDir, nil
	}
	return cacheDir()
}

func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Loading
// =============================================================================

// loadLibrary reads definition files, using the tile catalog at tilesPath
// (or PROMAGE_TILES, or the built-in catalog).
func (c *CLI) loadLibrary(ctx context.Context, paths []string, tilesPath string) (*pipeline.Library, error) {
	if tilesPath == "" {
		tilesPath = c.env.Tiles
	}

	env := &step.Env{Logger: c.Logger}
	loader := definition.NewLoader(env)
	if tilesPath != "" {
		data, err := os.ReadFile(tilesPath)
		if err != nil {
			return nil, err
		}
		if env.Tiles, err = tile.Parse(data); err != nil {
			return nil, err
		}
		loader.AddSource(data)
	}
	return loader.Load(ctx, paths...)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
