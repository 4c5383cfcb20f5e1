// Package script implements custom condition and result handlers in Lua.
//
// A script defines a global function handle(event). The event table has the
// fields name, kind ("condition" or "result"), tile (flat index), x, y and
// attrs (the step's attribute values for the event). For conditions the
// boolean returned by handle decides whether the tile is eligible; results
// mutate the tile through the promage table:
//
//	promage.tile_type()        -- current tile type name
//	promage.set_type(name)     -- change the tile type
//	promage.has_tag(tag)
//	promage.add_tag(tag)
//	promage.remove_tag(tag)
//	promage.heat(name)         -- heat value or nil
//	promage.set_heat(name, v)
//	promage.random()           -- draws from the map's random source
//
// For example:
//
//	function handle(event)
//	  promage.add_tag("Lit")
//	  promage.set_heat("Light", tonumber(event.attrs.torchLevel))
//	end
package script

import (
	"io"
	"os"
	"sort"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/charmbracelet/log"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
)

// HandleFunc is the global function every script must define.
const HandleFunc = "handle"

// Library is the global table holding the host functions.
const Library = "promage"

// Handler runs events through one Lua script. A Lua state is not safe for
// concurrent use, so calls are serialized.
type Handler struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	state   *lua.State
	current *event.Args
}

// Load compiles and runs the script at path and checks that it defines
// handle. A nil logger discards script failures.
func Load(path string, logger *log.Logger) (*Handler, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "script %s", path)
	}

	h := &Handler{path: path, logger: logger, state: lua.NewState()}
	lua.OpenLibraries(h.state)
	h.register()

	if err := lua.LoadFile(h.state, path, ""); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScript, err, "load %s", path)
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScript, err, "run %s", path)
	}

	h.state.Global(HandleFunc)
	ok := h.state.TypeOf(-1) == lua.TypeFunction
	h.state.Pop(1)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidScript, "%s: no global function %s(event)", path, HandleFunc)
	}
	return h, nil
}

// Path returns the script's file path.
func (h *Handler) Path() string { return h.path }

// Handle calls the script's handle function with args. Script errors are
// logged and leave a condition unsatisfied.
func (h *Handler) Handle(args *event.Args) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = args
	defer func() { h.current = nil }()

	l := h.state
	top := l.Top()
	defer l.SetTop(top)

	l.Global(HandleFunc)
	pushEvent(l, args)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		// The error value is left on the stack; the deferred SetTop drops it.
		h.logger.Warn("script failed", "script", h.path, "event", args.Event, "error", err)
		return
	}
	if args.Kind == event.Condition {
		args.IsValid = l.ToBoolean(-1)
	}
}

func pushEvent(l *lua.State, args *event.Args) {
	l.NewTable()
	l.PushString(args.Event)
	l.SetField(-2, "name")
	l.PushString(args.Kind.String())
	l.SetField(-2, "kind")
	if t := args.Tile; t != nil {
		l.PushInteger(t.Index)
		l.SetField(-2, "tile")
		l.PushInteger(t.X)
		l.SetField(-2, "x")
		l.PushInteger(t.Y)
		l.SetField(-2, "y")
	}

	l.NewTable()
	names := make([]string, 0, len(args.Attrs))
	for name := range args.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l.PushString(args.Attrs[name])
		l.SetField(-2, name)
	}
	l.SetField(-2, "attrs")
}

// =============================================================================
// Host functions
// =============================================================================

func (h *Handler) register() {
	h.state.NewTable()
	lua.SetFunctions(h.state, []lua.RegistryFunction{
		{Name: "tile_type", Function: h.tileType},
		{Name: "set_type", Function: h.setType},
		{Name: "has_tag", Function: h.hasTag},
		{Name: "add_tag", Function: h.addTag},
		{Name: "remove_tag", Function: h.removeTag},
		{Name: "heat", Function: h.heat},
		{Name: "set_heat", Function: h.setHeat},
		{Name: "random", Function: h.random},
	}, 0)
	h.state.SetGlobal(Library)
}

// args returns the event being handled, raising a Lua error outside handle.
func (h *Handler) args(l *lua.State) *event.Args {
	if h.current == nil || h.current.Tile == nil {
		lua.Errorf(l, "promage functions are only available inside handle")
	}
	return h.current
}

func (h *Handler) tileType(l *lua.State) int {
	l.PushString(h.args(l).Tile.TypeName())
	return 1
}

func (h *Handler) setType(l *lua.State) int {
	args := h.args(l)
	name := lua.CheckString(l, 1)
	def, ok := args.Map.Catalog().Lookup(name)
	if !ok {
		lua.Errorf(l, "unknown tile type %s", name)
	}
	args.Tile.Type = def
	return 0
}

func (h *Handler) hasTag(l *lua.State) int {
	l.PushBoolean(h.args(l).Tile.Tags.Has(lua.CheckString(l, 1)))
	return 1
}

func (h *Handler) addTag(l *lua.State) int {
	h.args(l).Tile.Tags.Add(lua.CheckString(l, 1))
	return 0
}

func (h *Handler) removeTag(l *lua.State) int {
	h.args(l).Tile.Tags.Remove(lua.CheckString(l, 1))
	return 0
}

func (h *Handler) heat(l *lua.State) int {
	v, ok := h.args(l).Tile.Heat(lua.CheckString(l, 1))
	if !ok {
		l.PushNil()
		return 1
	}
	l.PushNumber(v)
	return 1
}

func (h *Handler) setHeat(l *lua.State) int {
	t := h.args(l).Tile
	t.SetHeat(lua.CheckString(l, 1), lua.CheckNumber(l, 2))
	return 0
}

func (h *Handler) random(l *lua.State) int {
	l.PushNumber(h.args(l).Map.RNG().Float())
	return 1
}

var _ event.Handler = (*Handler)(nil)
