package render

import (
	"strings"
	"sync"

	"github.com/olivier-w/lyricviz/internal/visualizer"
)

// DefaultStyle is used for empty or unknown style ids.
const DefaultStyle = "particles"

var (
	registryMu sync.RWMutex
	registry   = map[string]func() visualizer.Style{}
	order      []string
)

func init() {
	for _, ctor := range visualizer.Builtin {
		Register(ctor().Name(), ctor)
	}
}

// Register adds or replaces a style constructor under id.
func Register(id string, ctor func() visualizer.Style) {
	id = normalizeID(id)
	if id == "" || ctor == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[id]; !exists {
		order = append(order, id)
	}
	registry[id] = ctor
}

// Lookup builds a fresh style for id. Unknown ids fall back to
// DefaultStyle; the returned id is the one actually used.
func Lookup(id string) (visualizer.Style, string) {
	id = normalizeID(id)
	registryMu.RLock()
	ctor, ok := registry[id]
	if !ok {
		id = DefaultStyle
		ctor = registry[id]
	}
	registryMu.RUnlock()
	return ctor(), id
}

// Styles lists registered style ids in registration order.
func Styles() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]string(nil), order...)
}

// NextStyle returns the id registered after id, wrapping around.
func NextStyle(id string) string {
	ids := Styles()
	id = normalizeID(id)
	for i, s := range ids {
		if s == id {
			return ids[(i+1)%len(ids)]
		}
	}
	return DefaultStyle
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
