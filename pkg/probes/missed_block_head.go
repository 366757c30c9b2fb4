package probes

import (
	"context"
	"fmt"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// BlockSource is the subset of beacon.Client this probe needs.
type BlockSource interface {
	GetBlock(ctx context.Context, blockID string) (*models.Block, error)
}

// DutyLookup is the subset of proposer.Schedule this probe needs.
type DutyLookup interface {
	GetDuty(slot models.Slot) (models.ProposerDuty, bool)
}

// HeadBlockResult is the outcome of checking one slot at the chain head.
type HeadBlockResult struct {
	Proposed       bool
	Duty           models.ProposerDuty
	HasDuty        bool
	IsOurValidator bool
}

// MissedBlockHead checks whether the block at slot was produced, and
// whether the slot's scheduled proposer (if any) belongs to the watched
// set. ourPubkeys is nil-safe: an empty set simply means every duty
// resolves IsOurValidator=false.
func MissedBlockHead(ctx context.Context, blocks BlockSource, schedule DutyLookup, slot models.Slot, ourPubkeys map[string]bool) (HeadBlockResult, error) {
	block, err := blocks.GetBlock(ctx, fmt.Sprintf("%d", slot))
	if err != nil {
		return HeadBlockResult{}, err
	}

	duty, hasDuty := schedule.GetDuty(slot)
	result := HeadBlockResult{
		Proposed: block != nil,
		Duty:     duty,
		HasDuty:  hasDuty,
	}
	if hasDuty && ourPubkeys[duty.Pubkey] {
		result.IsOurValidator = true
	}
	return result, nil
}
