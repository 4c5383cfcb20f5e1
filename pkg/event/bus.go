package event

import (
	"sync"

	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Args is passed to handlers when an event fires.
type Args struct {
	Event string
	Kind  Kind
	Attrs map[string]string
	Map   *tilemap.Map
	Tile  *tilemap.Tile

	// IsValid is the answer to a condition. It starts false, so a condition
	// nobody handles leaves the tile ineligible.
	IsValid bool
}

// Handler responds to fired events.
type Handler interface {
	Handle(args *Args)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(args *Args)

// Handle calls f(args).
func (f HandlerFunc) Handle(args *Args) { f(args) }

// Bus dispatches fired events to subscribed handlers by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe adds h to the handlers for name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Unsubscribe removes every handler for name.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, name)
}

// Subscribed reports whether name has at least one handler.
func (b *Bus) Subscribed(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name]) > 0
}

// Fire calls every handler subscribed to args.Event, in subscription order.
// Firing an event with no subscribers is a no-op.
func (b *Bus) Fire(args *Args) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers[args.Event]
	b.mu.RUnlock()
	for _, h := range hs {
		h.Handle(args)
	}
}

// CheckCondition fires a condition instance and returns the handlers' verdict.
// Instances whose template has been removed are treated as unregistered and
// pass.
func CheckCondition(r *Registry, b *Bus, inst *Instance, m *tilemap.Map, t *tilemap.Tile) bool {
	tmpl, ok := r.Template(Condition, inst.Index)
	if !ok || !inst.Live(r) {
		return true
	}
	args := &Args{Event: inst.Name, Kind: Condition, Attrs: inst.Attrs(tmpl), Map: m, Tile: t}
	b.Fire(args)
	return args.IsValid
}

// ApplyResult fires a result instance. Removed templates do not fire.
func ApplyResult(r *Registry, b *Bus, inst *Instance, m *tilemap.Map, t *tilemap.Tile) {
	tmpl, ok := r.Template(Result, inst.Index)
	if !ok || !inst.Live(r) {
		return
	}
	b.Fire(&Args{Event: inst.Name, Kind: Result, Attrs: inst.Attrs(tmpl), Map: m, Tile: t})
}
