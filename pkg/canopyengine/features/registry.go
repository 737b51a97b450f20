package features

import (
	"fmt"
	"sort"
	"sync"

	"k8s.io/klog/v2"
)

// Registry is the read-only per-unit feature store. It is built once at
// process start from aggregator output and never mutated afterwards, so
// lookups need no locking; only the hit/miss counters do.
type Registry struct {
	units   map[string]*Unit
	metrics *metrics
}

type metrics struct {
	hits   int64
	misses int64
	mutex  sync.RWMutex
}

// NewRegistry validates a batch of raw records, normalizes derived scores
// batch-wide, and builds the registry.
func NewRegistry(records []Record) (*Registry, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no feature records to load")
	}

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid feature record: %v", err)
		}
	}

	vectors := computeScores(records)

	units := make(map[string]*Unit, len(records))
	for i, r := range records {
		if _, exists := units[r.ID]; exists {
			return nil, fmt.Errorf("duplicate unit id: %s", r.ID)
		}
		units[r.ID] = &Unit{
			SpatialUnit: SpatialUnit{
				ID:       r.ID,
				AreaKm2:  r.AreaKm2,
				Centroid: Centroid{Lat: r.Lat, Lon: r.Lon},
			},
			Features: vectors[i],
		}
	}

	klog.V(2).InfoS("Built feature registry", "units", len(units))

	return &Registry{
		units:   units,
		metrics: &metrics{},
	}, nil
}

// Get returns the unit for an id, or false when the id is absent
func (r *Registry) Get(id string) (*Unit, bool) {
	unit, ok := r.units[id]
	if ok {
		r.recordHit()
	} else {
		r.recordMiss()
	}
	return unit, ok
}

// Size returns the number of loaded units
func (r *Registry) Size() int {
	return len(r.units)
}

// IDs returns the loaded unit ids in lexical order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.units))
	for id := range r.units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LookupMetrics returns lookup hit/miss counts
func (r *Registry) LookupMetrics() (hits, misses int64) {
	r.metrics.mutex.RLock()
	defer r.metrics.mutex.RUnlock()
	return r.metrics.hits, r.metrics.misses
}

func (r *Registry) recordHit() {
	r.metrics.mutex.Lock()
	r.metrics.hits++
	r.metrics.mutex.Unlock()
}

func (r *Registry) recordMiss() {
	r.metrics.mutex.Lock()
	r.metrics.misses++
	r.metrics.mutex.Unlock()
}
