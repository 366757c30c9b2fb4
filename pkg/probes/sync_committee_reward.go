package probes

import (
	"context"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// SyncCommitteeRewardSource is the subset of beacon.Client this probe
// needs.
type SyncCommitteeRewardSource interface {
	GetSyncCommitteeRewards(ctx context.Context, slot models.Slot, indices []models.ValidatorIndex) ([]models.SyncCommitteeRewardItem, error)
}

// SyncCommitteeRewards fetches each watched sync committee member's
// reward for the given slot, keyed by validator index. Returns an empty
// map without calling the beacon node at all when indices is empty,
// since a sync committee reward request for no validators is wasted
// work.
func SyncCommitteeRewards(ctx context.Context, client SyncCommitteeRewardSource, slot models.Slot, indices []models.ValidatorIndex) (map[models.ValidatorIndex]models.SignedGwei, error) {
	if len(indices) == 0 {
		return map[models.ValidatorIndex]models.SignedGwei{}, nil
	}

	items, err := client.GetSyncCommitteeRewards(ctx, slot, indices)
	if err != nil {
		return nil, err
	}

	rewards := make(map[models.ValidatorIndex]models.SignedGwei, len(items))
	for _, item := range items {
		rewards[item.ValidatorIndex] = item.Reward
	}
	return rewards, nil
}
