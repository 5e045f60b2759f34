package crucible

import (
	"encoding/hex"
	"fmt"
)

// RouteKey is the unit of dispatch: one call convention, one selector (zero
// for bare calls) and one completion action. Every incoming application
// call resolves to exactly one route key, and a valid routing table maps
// each key to at most one handler.
type RouteKey struct {
	Convention CallConvention
	Selector   [4]byte
	Action     Action
}

func (k RouteKey) String() string {
	if k.Convention == MethodCall {
		return fmt.Sprintf("method 0x%s/%s", hex.EncodeToString(k.Selector[:]), k.Action)
	}
	return fmt.Sprintf("bare/%s", k.Action)
}

// routeKeys expands a handler into one key per allowed completion action.
func routeKeys(h *Handler) []RouteKey {
	actions := h.actions.List()
	keys := make([]RouteKey, 0, len(actions))
	for _, a := range actions {
		keys = append(keys, RouteKey{Convention: h.conv, Selector: h.selector, Action: a})
	}
	return keys
}

// Registry collects handlers in declaration order. Names are unique; route
// validation and key expansion happen in Table.
type Registry struct {
	handlers []*Handler
	byName   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Add registers a handler. A second handler under an already registered
// name is rejected.
func (r *Registry) Add(h *Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if _, exists := r.byName[h.name]; exists {
		return &DuplicateHandlerError{Name: h.name}
	}
	r.byName[h.name] = len(r.handlers)
	r.handlers = append(r.handlers, h)
	return nil
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Get returns the handler registered under the name.
func (r *Registry) Get(name string) (*Handler, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.handlers[i], true
}

// Handlers returns the registered handlers in declaration order.
func (r *Registry) Handlers() []*Handler {
	out := make([]*Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Table validates every handler and expands the registry into a routing
// table. Two handlers claiming the same route key make the registry
// unroutable and fail here, before any code generation.
func (r *Registry) Table() (*RoutingTable, error) {
	t := &RoutingTable{
		entries: make([]*Handler, len(r.handlers)),
		routes:  make(map[RouteKey]*Handler, len(r.handlers)),
	}
	copy(t.entries, r.handlers)

	for _, h := range r.handlers {
		if err := h.validate(); err != nil {
			return nil, &HandlerError{Handler: h.name, Err: err}
		}
		for _, key := range routeKeys(h) {
			if prev, taken := t.routes[key]; taken {
				return nil, &AmbiguousRouteError{Key: key, First: prev.name, Second: h.name}
			}
			t.routes[key] = h
			t.keys = append(t.keys, key)
		}
	}
	return t, nil
}

// RoutingTable is an immutable dispatch map from route keys to handlers.
// Key order is deterministic: declaration order, then action order within
// each handler.
type RoutingTable struct {
	entries []*Handler
	routes  map[RouteKey]*Handler
	keys    []RouteKey
}

// Route performs an exact-key lookup.
func (t *RoutingTable) Route(key RouteKey) (*Handler, bool) {
	h, ok := t.routes[key]
	return h, ok
}

// Len returns the number of handlers in the table.
func (t *RoutingTable) Len() int {
	return len(t.entries)
}

// Entries returns the handlers in declaration order.
func (t *RoutingTable) Entries() []*Handler {
	out := make([]*Handler, len(t.entries))
	copy(out, t.entries)
	return out
}

// Keys returns every route key in deterministic order.
func (t *RoutingTable) Keys() []RouteKey {
	out := make([]RouteKey, len(t.keys))
	copy(out, t.keys)
	return out
}

// selectorGroup gathers the method handlers sharing one selector. Handlers
// stay in declaration order; their action sets are disjoint once Table has
// validated the registry.
type selectorGroup struct {
	selector [4]byte
	handlers []*Handler
}

// selectorGroups returns the method handlers grouped by selector, in order
// of first appearance.
func (t *RoutingTable) selectorGroups() []selectorGroup {
	index := make(map[[4]byte]int)
	groups := make([]selectorGroup, 0, len(t.entries))
	for _, h := range t.entries {
		if h.conv != MethodCall {
			continue
		}
		i, ok := index[h.selector]
		if !ok {
			i = len(groups)
			index[h.selector] = i
			groups = append(groups, selectorGroup{selector: h.selector})
		}
		groups[i].handlers = append(groups[i].handlers, h)
	}
	return groups
}

// bareEntries returns the bare handlers in declaration order.
func (t *RoutingTable) bareEntries() []*Handler {
	out := make([]*Handler, 0, len(t.entries))
	for _, h := range t.entries {
		if h.conv == BareCall {
			out = append(out, h)
		}
	}
	return out
}
