package probes

import (
	"context"
	"fmt"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// FinalizedHeaderSource is the subset of beacon.Client this probe needs.
type FinalizedHeaderSource interface {
	GetFinalizedHeader(ctx context.Context) (models.Slot, error)
}

// FinalizedSlotResult is the outcome for one slot the finalized cursor
// passed over.
type FinalizedSlotResult struct {
	Slot           models.Slot
	Proposed       bool
	Duty           models.ProposerDuty
	HasDuty        bool
	IsOurValidator bool
}

// MissedBlockFinalizedCursor advances a monotone pointer over the chain's
// finalized checkpoint, confirming the hit/miss status of every slot the
// checkpoint has newly passed since the last call. The finalized
// checkpoint can jump forward by more than one slot between polls, so a
// single call may report on a run of several slots at once.
type MissedBlockFinalizedCursor struct {
	nextSlot models.Slot
	started  bool
}

// NewMissedBlockFinalizedCursor creates a cursor that starts reporting
// from startSlot onward, inclusive.
func NewMissedBlockFinalizedCursor(startSlot models.Slot) *MissedBlockFinalizedCursor {
	return &MissedBlockFinalizedCursor{nextSlot: startSlot, started: true}
}

// Advance fetches the current finalized checkpoint and returns the
// confirmed status of every slot between the cursor's position and the
// checkpoint, inclusive, advancing the cursor past them.
func (c *MissedBlockFinalizedCursor) Advance(ctx context.Context, headers FinalizedHeaderSource, blocks BlockSource, schedule DutyLookup, ourPubkeys map[string]bool) ([]FinalizedSlotResult, error) {
	finalized, err := headers.GetFinalizedHeader(ctx)
	if err != nil {
		return nil, err
	}
	if !c.started {
		c.nextSlot = finalized
		c.started = true
	}

	var results []FinalizedSlotResult
	for slot := c.nextSlot; slot <= finalized; slot++ {
		block, err := blocks.GetBlock(ctx, fmt.Sprintf("%d", slot))
		if err != nil {
			return results, err
		}
		duty, hasDuty := schedule.GetDuty(slot)
		results = append(results, FinalizedSlotResult{
			Slot:           slot,
			Proposed:       block != nil,
			Duty:           duty,
			HasDuty:        hasDuty,
			IsOurValidator: hasDuty && ourPubkeys[duty.Pubkey],
		})
	}
	c.nextSlot = finalized + 1
	return results, nil
}
