package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ddurio/ProMage2-sub001/pkg/cache"
	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/observability"
	"github.com/ddurio/ProMage2-sub001/pkg/render"
	"github.com/ddurio/ProMage2-sub001/pkg/render/diagram"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Diagram formats accepted by [Runner.RenderDiagram].
const (
	DiagramDOT = "dot"
	DiagramSVG = "svg"
)

// Runner encapsulates map generation with artifact caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store generation results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute generates one map from lib and renders the requested artifacts.
// When every artifact is cached for the library's sources, the map is not
// generated at all and Result.Map is nil.
func (r *Runner) Execute(ctx context.Context, lib *Library, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Seed: opts.Seed, Artifacts: make(map[string][]byte)}

	if artifacts, ok := r.cached(ctx, lib, opts); ok {
		result.Artifacts = artifacts
		result.CacheInfo.Hit = true
		opts.Logger.Debug("artifacts from cache", "map", opts.Map, "seed", opts.Seed)
		return result, nil
	}

	buildStart := time.Now()
	p, err := lib.Build(opts.Map)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Steps = p.Len()

	genStart := time.Now()
	m, err := p.Generate(ctx, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	result.Map = m
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.Width = m.Width()
	result.Stats.Height = m.Height()

	opts.Logger.Info("generated map",
		"map", opts.Map,
		"seed", opts.Seed,
		"size", fmt.Sprintf("%dx%d", m.Width(), m.Height()),
		"steps", p.Len(),
		"duration", result.Stats.GenerateTime)

	renderStart := time.Now()
	artifacts, err := RenderArtifacts(m, opts.Formats, opts.HeatMap)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	if lib.SourceHash != "" {
		for format, data := range artifacts {
			key := r.Keyer.MapKey(lib.SourceHash, opts.Map, opts.MapKeyOpts(format))
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
				opts.Logger.Warn("cache write failed", "key", key, "error", err)
				continue
			}
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return result, nil
}

// ExecuteBatch generates opts.Count maps with seeds opts.Seed,
// opts.Seed+1, ... concurrently. Each generation builds its own pipeline
// and map; the library's environment is shared read-only. Results are in
// seed order.
func (r *Runner) ExecuteBatch(ctx context.Context, lib *Library, opts Options) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if _, err := lib.Map(opts.Map); err != nil {
		return nil, err
	}
	lib.Env.SetDefaults()

	results := make([]*Result, opts.Count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range opts.Count {
		o := opts
		o.Seed = opts.Seed + uint64(i)
		g.Go(func() error {
			res, err := r.Execute(gctx, lib, o)
			if err != nil {
				return fmt.Errorf("seed %d: %w", o.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// cached returns every requested artifact if all of them are cached.
func (r *Runner) cached(ctx context.Context, lib *Library, opts Options) (map[string][]byte, bool) {
	if opts.Refresh || lib.SourceHash == "" {
		return nil, false
	}
	hooks := observability.Cache()
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.MapKey(lib.SourceHash, opts.Map, opts.MapKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, key)
			return nil, false
		}
		hooks.OnCacheHit(ctx, key)
		artifacts[format] = data
	}
	return artifacts, true
}

// RenderArtifacts renders m in each of formats.
func RenderArtifacts(m *tilemap.Map, formats []string, heatMap string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		switch format {
		case FormatText:
			artifacts[format] = render.Text(m)
		case FormatHeat:
			artifacts[format] = render.HeatMapText(m, heatMap)
		case FormatJSON:
			data, err := render.JSON(m)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		default:
			return nil, ValidateFormat(format)
		}
	}
	return artifacts, nil
}

// RenderDiagram renders the named map's pipeline as DOT or SVG, with caching.
func (r *Runner) RenderDiagram(ctx context.Context, lib *Library, mapName, format string, opts diagram.Options) ([]byte, bool, error) {
	if format != DiagramDOT && format != DiagramSVG {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "invalid diagram format: %q (must be one of: dot, svg)", format)
	}

	keyFormat := format
	if opts.Detailed {
		keyFormat += "+detailed"
	}
	key := r.Keyer.DiagramKey(lib.SourceHash, mapName, keyFormat)
	if lib.SourceHash != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, key)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	p, err := lib.Build(mapName)
	if err != nil {
		return nil, false, err
	}
	dot := diagram.ToDOT(p.Diagram(), opts)

	data := []byte(dot)
	if format == DiagramSVG {
		if data, err = diagram.RenderSVG(ctx, dot); err != nil {
			return nil, false, err
		}
	}

	if lib.SourceHash != "" {
		if err := r.Cache.Set(ctx, key, data, cache.TTLDiagram); err == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
