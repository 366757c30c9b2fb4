package probes

import (
	"context"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

type fakeBlockSource struct {
	block *models.Block
}

func (f *fakeBlockSource) GetBlock(ctx context.Context, blockID string) (*models.Block, error) {
	return f.block, nil
}

type fakeDutyLookup struct {
	duty    models.ProposerDuty
	hasDuty bool
}

func (f *fakeDutyLookup) GetDuty(slot models.Slot) (models.ProposerDuty, bool) {
	return f.duty, f.hasDuty
}

func TestMissedBlockHeadDetectsMiss(t *testing.T) {
	blocks := &fakeBlockSource{block: nil}
	sched := &fakeDutyLookup{duty: models.ProposerDuty{Slot: 100, Pubkey: "0xabc"}, hasDuty: true}

	got, err := MissedBlockHead(context.Background(), blocks, sched, 100, map[string]bool{"0xabc": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Proposed {
		t.Error("expected Proposed=false for a missing block")
	}
	if !got.IsOurValidator {
		t.Error("expected IsOurValidator=true for a watched pubkey")
	}
}

func TestMissedBlockHeadProposedByOther(t *testing.T) {
	blocks := &fakeBlockSource{block: &models.Block{}}
	sched := &fakeDutyLookup{duty: models.ProposerDuty{Slot: 100, Pubkey: "0xdef"}, hasDuty: true}

	got, err := MissedBlockHead(context.Background(), blocks, sched, 100, map[string]bool{"0xabc": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Proposed {
		t.Error("expected Proposed=true when a block was returned")
	}
	if got.IsOurValidator {
		t.Error("expected IsOurValidator=false for an unwatched pubkey")
	}
}

func TestMissedBlockHeadNoDutyKnown(t *testing.T) {
	blocks := &fakeBlockSource{block: &models.Block{}}
	sched := &fakeDutyLookup{}

	got, err := MissedBlockHead(context.Background(), blocks, sched, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HasDuty {
		t.Error("expected HasDuty=false when the schedule has no entry for the slot")
	}
	if got.IsOurValidator {
		t.Error("expected IsOurValidator=false without a known duty")
	}
}
