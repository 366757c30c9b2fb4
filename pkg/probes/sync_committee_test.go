package probes

import (
	"context"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

type fakeSyncCommitteeSource struct {
	calls  int
	roster []models.ValidatorIndex
}

func (f *fakeSyncCommitteeSource) GetSyncCommittee(ctx context.Context, stateID string, epoch models.Epoch) ([]models.ValidatorIndex, error) {
	f.calls++
	return f.roster, nil
}

func TestSyncCommitteeTrackerCachesWithinPeriod(t *testing.T) {
	src := &fakeSyncCommitteeSource{roster: []models.ValidatorIndex{1, 2, 3}}
	tr := NewSyncCommitteeTracker()

	if _, err := tr.Roster(context.Background(), src, 0, 256); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tr.Roster(context.Background(), src, 1, 256); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch within the same period, got %d", src.calls)
	}
}

func TestSyncCommitteeTrackerRefetchesOnRotation(t *testing.T) {
	src := &fakeSyncCommitteeSource{roster: []models.ValidatorIndex{1}}
	tr := NewSyncCommitteeTracker()

	if _, err := tr.Roster(context.Background(), src, 0, 256); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tr.Roster(context.Background(), src, 256, 256); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("expected 2 fetches across a period rotation, got %d", src.calls)
	}
}

func TestSyncCommitteeMembershipCountsMatches(t *testing.T) {
	roster := map[models.ValidatorIndex]bool{1: true, 2: true}
	got := SyncCommitteeMembership(roster, []models.ValidatorIndex{1, 3, 2})
	if got != 2 {
		t.Errorf("expected 2 members, got %d", got)
	}
}
