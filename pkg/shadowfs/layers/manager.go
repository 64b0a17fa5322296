package layers

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
)

// Manager is the C6 layer manager: it owns the registered source roots, the
// latest scan snapshot, and the named layers built over that snapshot, and
// dispatches virtual-path operations to the right one.
type Manager struct {
	mu      sync.RWMutex
	sources []scan.Entry
	files   []scan.FileRecord
	layers  map[string]Layer
	order   []string // insertion order, for ListLayers
	logger  *logging.Logger
}

// NewManager constructs an empty layer manager.
func NewManager(logger *logging.Logger) *Manager {
	return &Manager{
		layers: make(map[string]Layer),
		logger: logger,
	}
}

// AddSource registers a source root to be included in future scans. The
// path must already exist and be a directory.
func (m *Manager) AddSource(entry scan.Entry) error {
	info, err := os.Stat(entry.Root)
	if err != nil {
		return fmt.Errorf("stat source root %q: %w", entry.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source root %q is not a directory", entry.Root)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, entry)
	return nil
}

// AddLayer registers a named layer. It fails if the name is already taken.
func (m *Manager) AddLayer(layer Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := layer.Name()
	if _, exists := m.layers[name]; exists {
		return fmt.Errorf("layer %q already registered", name)
	}
	m.layers[name] = layer
	m.order = append(m.order, name)

	if m.files != nil {
		layer.BuildIndex(m.files)
	}
	return nil
}

// RemoveLayer unregisters a layer by name, returning false if it wasn't
// present.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.layers[name]; !exists {
		return false
	}
	delete(m.layers, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// GetLayer returns the named layer, if registered.
func (m *Manager) GetLayer(name string) (Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.layers[name]
	return l, ok
}

// ListLayers returns registered layer names in sorted order, matching the
// listing convention every individual Layer implementation follows.
func (m *Manager) ListLayers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	sort.Strings(out)
	return out
}

// Scan walks every registered source root, replacing the manager's file
// snapshot. It does not rebuild layer indexes; call RebuildIndexes after.
func (m *Manager) Scan() error {
	m.mu.Lock()
	sources := make([]scan.Entry, len(m.sources))
	copy(sources, m.sources)
	m.mu.Unlock()

	files, err := scan.Scan(sources, m.logger)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.files = files
	m.mu.Unlock()
	return nil
}

// RebuildIndexes rebuilds every registered layer's index from the latest
// scan snapshot.
func (m *Manager) RebuildIndexes() {
	m.mu.RLock()
	files := m.files
	layerList := make([]Layer, 0, len(m.layers))
	for _, name := range m.order {
		layerList = append(layerList, m.layers[name])
	}
	m.mu.RUnlock()

	for _, l := range layerList {
		l.BuildIndex(files)
	}
}

// Resolve maps a full virtual path ("layerName/sub/path...") to a backing
// path by dispatching to the named layer.
func (m *Manager) Resolve(virtualPath string) (string, bool) {
	layerName, subPath, ok := splitLayerPath(virtualPath)
	if !ok {
		return "", false
	}

	m.mu.RLock()
	l, exists := m.layers[layerName]
	m.mu.RUnlock()
	if !exists {
		return "", false
	}
	return l.Resolve(subPath)
}

// List enumerates a virtual directory: the empty path lists registered
// layer names, a bare layer name lists that layer's top level, and any
// deeper path is dispatched to the owning layer.
func (m *Manager) List(virtualPath string) []string {
	if strings.Trim(virtualPath, "/") == "" {
		return m.ListLayers()
	}

	layerName, subPath, ok := splitLayerPath(virtualPath)
	if !ok {
		return nil
	}

	m.mu.RLock()
	l, exists := m.layers[layerName]
	m.mu.RUnlock()
	if !exists {
		return nil
	}
	return l.List(subPath)
}

// splitLayerPath separates a virtual path's leading layer name from the
// remainder.
func splitLayerPath(virtualPath string) (layerName, subPath string, ok bool) {
	trimmed := strings.Trim(virtualPath, "/")
	if trimmed == "" {
		return "", "", false
	}
	layerName, subPath, _ = strings.Cut(trimmed, "/")
	return layerName, subPath, true
}
