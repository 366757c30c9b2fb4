// Package window provides a small bounded map keyed by epoch, used to
// remember per-epoch state (duties, rewards snapshots) across the
// handful of epochs a probe needs to look back over without growing
// unbounded over a long-running watcher process.
package window

import (
	"sync"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// DefaultCapacity is the number of epochs kept, matching the
// three-epoch lookback the attestation-inclusion probes need (current,
// previous, and the one before that while the beacon node finalizes).
const DefaultCapacity = 3

// EpochWindow is a bounded map from epoch to T. Inserting past capacity
// evicts the smallest epoch key present, not the least-recently-used
// one: epochs only ever move forward, so "smallest" and "oldest" agree
// in the normal case, and collapses correctly if an epoch is revisited.
type EpochWindow[T any] struct {
	mu       sync.Mutex
	capacity int
	data     map[models.Epoch]T
}

// New creates an EpochWindow with the given capacity. A non-positive
// capacity is treated as DefaultCapacity.
func New[T any](capacity int) *EpochWindow[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &EpochWindow[T]{
		capacity: capacity,
		data:     make(map[models.Epoch]T, capacity),
	}
}

// Set stores val for epoch, evicting the smallest present epoch if the
// window is full and epoch is not already a key.
func (w *EpochWindow[T]) Set(epoch models.Epoch, val T) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.data[epoch]; !exists && len(w.data) >= w.capacity {
		w.evictSmallestLocked()
	}
	w.data[epoch] = val
}

func (w *EpochWindow[T]) evictSmallestLocked() {
	var smallest models.Epoch
	first := true
	for e := range w.data {
		if first || e < smallest {
			smallest = e
			first = false
		}
	}
	if !first {
		delete(w.data, smallest)
	}
}

// Get returns the value stored for epoch, if still present.
func (w *EpochWindow[T]) Get(epoch models.Epoch) (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	v, ok := w.data[epoch]
	return v, ok
}

// GetOrNewest returns the value for epoch if present; otherwise it falls
// back to the value at the newest epoch still in the window. This
// matches the behavior needed when a probe asks about an epoch that has
// already been evicted: rather than erroring, it reasons about the most
// recent data it still has.
func (w *EpochWindow[T]) GetOrNewest(epoch models.Epoch) (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v, ok := w.data[epoch]; ok {
		return v, true
	}
	return w.newestLocked()
}

func (w *EpochWindow[T]) newestLocked() (T, bool) {
	var newest models.Epoch
	var val T
	found := false
	for e, v := range w.data {
		if !found || e > newest {
			newest = e
			val = v
			found = true
		}
	}
	return val, found
}

// Len returns the number of epochs currently stored.
func (w *EpochWindow[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.data)
}

// Epochs returns the epochs currently stored, in no particular order.
func (w *EpochWindow[T]) Epochs() []models.Epoch {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.Epoch, 0, len(w.data))
	for e := range w.data {
		out = append(out, e)
	}
	return out
}
