package probes

import (
	"context"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// BlockRewardSource is the subset of beacon.Client this probe needs.
type BlockRewardSource interface {
	GetBlockReward(ctx context.Context, slot models.Slot) (*models.BlockRewardResponse, error)
}

// BlockReward fetches the total proposer reward for slot. Returns
// ok=false for a missed slot (no reward to report), rather than an
// error.
func BlockReward(ctx context.Context, client BlockRewardSource, slot models.Slot) (reward models.SignedGwei, ok bool, err error) {
	resp, err := client.GetBlockReward(ctx, slot)
	if err != nil {
		return 0, false, err
	}
	if resp == nil {
		return 0, false, nil
	}
	return resp.Data.Total, true, nil
}
