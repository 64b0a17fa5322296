package fskernel

import (
	"os"
	"sync"
)

// handle is an open-handle record: a monotonic id, the backing
// descriptor, the paths it was opened at, and the flags it was opened
// with.
type handle struct {
	id           uint64
	file         *os.File
	backingPath  string
	virtualPath  string
	flags        int
}

// handleTable owns every open handle. Its mutex is held only for id
// allocation, lookup, and removal, never across I/O on the descriptor
// itself.
type handleTable struct {
	mu      sync.Mutex
	next    uint64
	entries map[uint64]*handle
}

func newHandleTable() *handleTable {
	return &handleTable{entries: make(map[uint64]*handle)}
}

// open allocates a new handle wrapping f.
func (t *handleTable) open(f *os.File, backingPath, virtualPath string, flags int) *handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := &handle{id: t.next, file: f, backingPath: backingPath, virtualPath: virtualPath, flags: flags}
	t.entries[h.id] = h
	return h
}

// get returns the handle for id, or (nil, false) if it's unknown (already
// released or never issued), which callers must translate to BadHandle.
func (t *handleTable) get(id uint64) (*handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.entries[id]
	return h, ok
}

// release closes the backing descriptor and removes id from the table.
// Returns false if id was not present.
func (t *handleTable) release(id uint64) bool {
	t.mu.Lock()
	h, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	_ = h.file.Close()
	return true
}
