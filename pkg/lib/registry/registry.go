// Package registry records which device drivers are believed to be loaded in
// the driver server. Entries reflect commands sent, not acknowledgements.
package registry

import (
	"sort"
	"sync"
	"time"
)

// Record is one device known to the registry.
type Record struct {
	Device   string
	Driver   string
	Loaded   bool
	LoadedAt time.Time
}

// Registry is keyed by device name.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
}

func New() *Registry {
	return &Registry{records: make(map[string]Record)}
}

// RecordLoad inserts or overwrites the record for device.
func (r *Registry) RecordLoad(device, driver string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[device] = Record{Device: device, Driver: driver, Loaded: true, LoadedAt: time.Now()}
}

// RecordUnload removes device. Unknown devices are ignored.
func (r *Registry) RecordUnload(device string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, device)
}

func (r *Registry) IsLoaded(device string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[device].Loaded
}

func (r *Registry) Get(device string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[device]
	return rec, ok
}

// Records returns a copy of all records sorted by device name.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Clear forgets every record.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]Record)
}
