package probes

import (
	"context"
	"sync"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// SyncCommitteeSource is the subset of beacon.Client this probe needs.
type SyncCommitteeSource interface {
	GetSyncCommittee(ctx context.Context, stateID string, epoch models.Epoch) ([]models.ValidatorIndex, error)
}

// SyncCommitteeTracker caches the current sync committee roster until
// the committee period rotates (every EpochsPerSyncCommitteePeriod
// epochs, 256 on mainnet): the roster is otherwise stable for the whole
// period, and re-fetching it every epoch would be wasted work against
// the beacon node.
type SyncCommitteeTracker struct {
	mu            sync.Mutex
	cachedPeriod  models.Epoch
	cachedRoster  map[models.ValidatorIndex]bool
	havePeriod    bool
}

// NewSyncCommitteeTracker creates an empty tracker.
func NewSyncCommitteeTracker() *SyncCommitteeTracker {
	return &SyncCommitteeTracker{}
}

func syncCommitteePeriod(epoch models.Epoch, epochsPerPeriod int64) models.Epoch {
	if epochsPerPeriod <= 0 {
		epochsPerPeriod = defaultEpochsPerSyncCommitteePeriod
	}
	return models.Epoch(int64(epoch) / epochsPerPeriod)
}

// Roster returns the current sync committee, as a set of validator
// indices, fetching from the beacon node only when the committee period
// has rotated since the last call.
func (t *SyncCommitteeTracker) Roster(ctx context.Context, client SyncCommitteeSource, epoch models.Epoch, epochsPerPeriod int64) (map[models.ValidatorIndex]bool, error) {
	period := syncCommitteePeriod(epoch, epochsPerPeriod)

	t.mu.Lock()
	if t.havePeriod && t.cachedPeriod == period {
		roster := t.cachedRoster
		t.mu.Unlock()
		return roster, nil
	}
	t.mu.Unlock()

	indices, err := client.GetSyncCommittee(ctx, "head", epoch)
	if err != nil {
		return nil, err
	}

	roster := make(map[models.ValidatorIndex]bool, len(indices))
	for _, idx := range indices {
		roster[idx] = true
	}

	t.mu.Lock()
	t.cachedPeriod = period
	t.cachedRoster = roster
	t.havePeriod = true
	t.mu.Unlock()

	return roster, nil
}

// SyncCommitteeMembership counts how many of the given validator indices
// are in the roster, the network-wide or watched-set count this probe
// publishes each epoch.
func SyncCommitteeMembership(roster map[models.ValidatorIndex]bool, indices []models.ValidatorIndex) int {
	count := 0
	for _, idx := range indices {
		if roster[idx] {
			count++
		}
	}
	return count
}
