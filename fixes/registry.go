package fixes

import (
	"sort"
	"sync"

	"github.com/a-h/clazylsp/diagnostic"
)

func NewRegistry() *Registry {
	return &Registry{
		byID:  map[string]entry{},
		byURI: map[string]map[string]struct{}{},
	}
}

// Registry maps each published diagnostic to the replacements that fix it,
// so a quick fix can be applied without running clazy again.
type Registry struct {
	m     sync.Mutex
	byID  map[string]entry
	byURI map[string]map[string]struct{}
}

type entry struct {
	uri   string
	spans []diagnostic.Span
}

// Add stores the spans for a diagnostic, replacing any already stored.
func (r *Registry) Add(uri, id string, spans []diagnostic.Span) {
	r.m.Lock()
	defer r.m.Unlock()
	r.removeLocked(id)
	r.addLocked(uri, id, spans)
}

// Replace swaps every entry for a file with entries.
func (r *Registry) Replace(uri string, entries map[string][]diagnostic.Span) {
	r.m.Lock()
	defer r.m.Unlock()
	r.clearLocked(uri)
	for id, spans := range entries {
		r.removeLocked(id)
		r.addLocked(uri, id, spans)
	}
}

// Get returns the spans for a diagnostic.
func (r *Registry) Get(id string) (uri string, spans []diagnostic.Span, ok bool) {
	r.m.Lock()
	defer r.m.Unlock()
	e, ok := r.byID[id]
	return e.uri, e.spans, ok
}

// Remove evicts a single diagnostic.
func (r *Registry) Remove(id string) {
	r.m.Lock()
	defer r.m.Unlock()
	r.removeLocked(id)
}

// Clear evicts every diagnostic for a file.
func (r *Registry) Clear(uri string) {
	r.m.Lock()
	defer r.m.Unlock()
	r.clearLocked(uri)
}

// IDs returns the sorted IDs registered for a file.
func (r *Registry) IDs(uri string) (ids []string) {
	r.m.Lock()
	defer r.m.Unlock()
	for id := range r.byURI[uri] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) addLocked(uri, id string, spans []diagnostic.Span) {
	if len(spans) == 0 {
		return
	}
	r.byID[id] = entry{uri: uri, spans: spans}
	ids, ok := r.byURI[uri]
	if !ok {
		ids = map[string]struct{}{}
		r.byURI[uri] = ids
	}
	ids[id] = struct{}{}
}

func (r *Registry) removeLocked(id string) {
	e, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	ids := r.byURI[e.uri]
	delete(ids, id)
	if len(ids) == 0 {
		delete(r.byURI, e.uri)
	}
}

func (r *Registry) clearLocked(uri string) {
	for id := range r.byURI[uri] {
		delete(r.byID, id)
	}
	delete(r.byURI, uri)
}
