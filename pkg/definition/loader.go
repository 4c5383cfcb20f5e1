// Package definition loads map pipelines, motifs and custom events from
// HCL files.
//
// A definition file may contain any number of these blocks:
//
//	motif "Cave" {
//	  vars = { floor = "Floor", caveIterations = "3~5" }
//	}
//
//	custom_result "Torch" {
//	  attrs       = ["torchLevel"]
//	  allowed     = { torchLevel = ["1", "2", "3"] }
//	  requirement = "all"       # all | one | none
//	  script      = "torch.lua" # relative to the file
//	}
//
//	map "Cavern" {
//	  width  = "40~48"
//	  height = 30
//	  fill   = "Wall"
//	  motifs = ["Cave"]
//
//	  step "Sprinkle" {
//	    count   = 200
//	    setType = "%floor%"
//	  }
//	}
//
// Step attributes are free-form: every attribute evaluates to text (numbers
// and bools by conversion, lists joined with commas) and the step kind
// decides which names it accepts when the pipeline is built.
//
// When several files define the same motif, event or map, the later
// definition replaces the earlier one.
package definition

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/ddurio/ProMage2-sub001/pkg/cache"
	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/motif"
	"github.com/ddurio/ProMage2-sub001/pkg/pipeline"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/script"
	"github.com/ddurio/ProMage2-sub001/pkg/step"
)

// Ext is the extension of definition files found in directories.
const Ext = ".hcl"

// Loader reads definition files into a pipeline library.
type Loader struct {
	env    *step.Env
	parser *hclparse.Parser
	chunks [][]byte
}

// NewLoader returns a loader that registers motifs and events into env.
// A nil env gets [step.NewEnv].
func NewLoader(env *step.Env) *Loader {
	if env == nil {
		env = step.NewEnv()
	}
	env.SetDefaults()
	return &Loader{env: env, parser: hclparse.NewParser()}
}

// Load reads every path (files, or directories searched recursively for
// .hcl files) in order and returns the resulting library. Env.BaseDir
// defaults to the directory of the first file.
func Load(ctx context.Context, env *step.Env, paths ...string) (*pipeline.Library, error) {
	return NewLoader(env).Load(ctx, paths...)
}

// Load reads paths into a new library sharing the loader's environment.
func (l *Loader) Load(ctx context.Context, paths ...string) (*pipeline.Library, error) {
	files, err := findFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no definition files found in %v", paths)
	}
	if l.env.BaseDir == "" {
		l.env.BaseDir = filepath.Dir(files[0])
	}

	lib := pipeline.NewLibrary(l.env)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.loadFile(lib, file); err != nil {
			return nil, err
		}
	}
	lib.SourceHash = cache.HashAll(l.chunks...)

	l.env.Logger.Debug("loaded definitions",
		"files", len(files),
		"maps", len(lib.MapNames()),
		"motifs", len(l.env.Motifs.Names()))
	return lib, nil
}

// AddSource includes extra bytes (such as a tile catalog) in the library's
// source hash.
func (l *Loader) AddSource(data []byte) {
	l.chunks = append(l.chunks, data)
}

func (l *Loader) loadFile(lib *pipeline.Library, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	l.chunks = append(l.chunks, []byte(path), src)

	file, diags := l.parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return errors.Wrap(errors.ErrCodeInvalidDefinition, diags, "parse %s", path)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return errors.Wrap(errors.ErrCodeInvalidDefinition, diags, "decode %s", path)
	}

	for _, b := range root.Motifs {
		if err := l.addMotif(b); err != nil {
			return fmt.Errorf("%s: motif %s: %w", path, b.Name, err)
		}
	}
	for _, b := range root.Conditions {
		if err := l.addEvent(event.Condition, b, filepath.Dir(path)); err != nil {
			return fmt.Errorf("%s: custom_condition %s: %w", path, b.Name, err)
		}
	}
	for _, b := range root.Results {
		if err := l.addEvent(event.Result, b, filepath.Dir(path)); err != nil {
			return fmt.Errorf("%s: custom_result %s: %w", path, b.Name, err)
		}
	}
	for _, b := range root.Maps {
		def, err := mapDefinition(b)
		if err != nil {
			return fmt.Errorf("%s: map %s: %w", path, b.Name, err)
		}
		replaced, err := lib.AddMap(def)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if replaced {
			l.env.Logger.Debug("map redefined", "map", def.Name, "file", path)
		}
	}
	return nil
}

func (l *Loader) addMotif(b *motifBlock) error {
	vars, err := exprStringMap(b.Vars)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "vars")
	}
	m := motif.New(b.Name)
	for name, value := range vars {
		if err := errors.ValidateName("motif variable", name); err != nil {
			return err
		}
		m.Set(name, value)
	}
	if _, exists := l.env.Motifs.Get(b.Name); exists {
		l.env.Logger.Debug("motif redefined", "motif", b.Name)
	}
	return l.env.Motifs.Add(m)
}

func (l *Loader) addEvent(kind event.Kind, b *eventBlock, dir string) error {
	req, err := event.ParseRequirement(b.Requirement)
	if err != nil {
		return err
	}
	tmpl := event.Template{Name: b.Name, Requirement: req, AttrNames: b.Attrs}
	if len(b.Allowed) > 0 {
		tmpl.AllowedValues = make([][]string, len(b.Attrs))
		for name, values := range b.Allowed {
			i := indexOf(b.Attrs, name)
			if i < 0 {
				return errors.New(errors.ErrCodeInvalidDefinition, "allowed values for unknown attribute %q", name)
			}
			tmpl.AllowedValues[i] = values
		}
	}

	var handler *script.Handler
	if b.Script != "" {
		path := b.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if err := errors.ValidatePath(b.Script); err != nil {
			return err
		}
		if handler, err = script.Load(path, l.env.Logger); err != nil {
			return err
		}
		if src, err := os.ReadFile(path); err == nil {
			l.chunks = append(l.chunks, src)
		}
	}

	reg := l.env.Events
	if i, exists := reg.Find(kind, b.Name); exists {
		l.env.Logger.Debug("custom event redefined", "kind", kind, "event", b.Name)
		if kind == event.Condition {
			reg.RemoveCondition(i)
		} else {
			reg.RemoveResult(i)
		}
		l.env.Bus.Unsubscribe(b.Name)
	}
	if kind == event.Condition {
		_, err = reg.AddCondition(tmpl)
	} else {
		_, err = reg.AddResult(tmpl)
	}
	if err != nil {
		return err
	}
	if handler != nil {
		l.env.Bus.Subscribe(b.Name, handler)
	}
	return nil
}

// dimension parses a required width or height. gohcl fills an absent
// expression field with a null value, so null means missing.
func dimension(name string, expr hcl.Expression) (ranges.Int, error) {
	if expr == nil {
		return ranges.Int{}, errors.New(errors.ErrCodeMissingAttribute, "%s is required", name)
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return ranges.Int{}, errors.Wrap(errors.ErrCodeInvalidDefinition, diags, "%s", name)
	}
	if val.IsNull() {
		return ranges.Int{}, errors.New(errors.ErrCodeMissingAttribute, "%s is required", name)
	}
	text, err := valueString(val)
	if err != nil {
		return ranges.Int{}, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "%s", name)
	}
	r, err := ranges.ParseInt(text)
	if err != nil {
		return ranges.Int{}, fmt.Errorf("%s: %w", name, err)
	}
	return r, nil
}

func mapDefinition(b *mapBlock) (pipeline.Definition, error) {
	def := pipeline.Definition{Name: b.Name, Fill: b.Fill, Motifs: b.Motifs}

	var err error
	if def.Width, err = dimension("width", b.Width); err != nil {
		return def, err
	}
	if def.Height, err = dimension("height", b.Height); err != nil {
		return def, err
	}

	for i, sb := range b.Steps {
		attrs, diags := sb.Body.JustAttributes()
		if diags.HasErrors() {
			return def, errors.Wrap(errors.ErrCodeInvalidDefinition, diags, "step %d (%s)", i, sb.Kind)
		}
		src := make(step.Source, len(attrs))
		for name, attr := range attrs {
			text, err := exprString(attr.Expr)
			if err != nil {
				return def, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "step %d (%s): %s", i, sb.Kind, name)
			}
			src[name] = text
		}
		def.Steps = append(def.Steps, pipeline.StepDef{Kind: sb.Kind, Attrs: src})
	}
	return def, nil
}

// findFiles expands directories into their .hcl files, sorted, and keeps
// explicit files as given. Duplicates are dropped.
func findFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "definition path %s", path)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		var found []string
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == Ext {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return files, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
