package status

import "sync/atomic"

// Registry is the central metrics facade
// Components cache counter pointers at construction; frame loops write directly to atomics
type Registry struct {
	Ints *MetricMap[atomic.Int64]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Ints: NewMetricMap[atomic.Int64](),
	}
}

// Snapshot copies current counter values keyed by name
func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64, r.Ints.Count())
	r.Ints.Range(func(key string, ptr *atomic.Int64) {
		out[key] = ptr.Load()
	})
	return out
}
