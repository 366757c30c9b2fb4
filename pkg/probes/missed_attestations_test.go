package probes

import (
	"context"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

type fakeLivenessSource struct {
	liveness []models.ValidatorLiveness
}

func (f *fakeLivenessSource) GetValidatorsLiveness(ctx context.Context, beaconType models.BeaconType, epoch models.Epoch, indices []models.ValidatorIndex) ([]models.ValidatorLiveness, error) {
	return f.liveness, nil
}

func TestMissedAttestationsBeforeEpochOneIsEmpty(t *testing.T) {
	src := &fakeLivenessSource{}
	got, err := MissedAttestations(context.Background(), src, models.BeaconOther, 0, []models.ValidatorIndex{42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no misses before epoch 1, got %v", got)
	}
}

func TestMissedAttestationsReturnsDeadIndices(t *testing.T) {
	src := &fakeLivenessSource{liveness: []models.ValidatorLiveness{
		{Index: 42, IsLive: false},
		{Index: 43, IsLive: true},
	}}
	got, err := MissedAttestations(context.Background(), src, models.BeaconOther, 1, []models.ValidatorIndex{42, 43})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[42] || got[43] {
		t.Errorf("expected only index 42 marked dead, got %v", got)
	}
}

func TestDoubleMissedAttestationsBeforeEpochTwoIsEmpty(t *testing.T) {
	curr := map[models.ValidatorIndex]bool{42: true}
	prev := map[models.ValidatorIndex]bool{42: true}
	got := DoubleMissedAttestations(1, curr, prev)
	if len(got) != 0 {
		t.Errorf("expected no double misses before epoch 2, got %v", got)
	}
}

func TestDoubleMissedAttestationsIntersectsCurrAndPrev(t *testing.T) {
	curr := map[models.ValidatorIndex]bool{42: true, 7: true}
	prev := map[models.ValidatorIndex]bool{42: true}
	got := DoubleMissedAttestations(2, curr, prev)
	if len(got) != 1 || !got[42] {
		t.Errorf("expected only index 42 double-missed, got %v", got)
	}
}
