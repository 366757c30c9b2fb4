package probes

import (
	"context"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

type fakeCommitteeSource struct {
	committees []models.Committee
}

func (f *fakeCommitteeSource) GetCommittees(ctx context.Context, stateID string, epoch *models.Epoch, slot *models.Slot) ([]models.Committee, error) {
	return f.committees, nil
}

func TestSuboptimalAttestationsTalliesIncludedAndMissed(t *testing.T) {
	committees := []models.Committee{
		{Index: 0, Slot: 100, Validators: []string{"42", "43", "44"}},
	}
	src := &fakeCommitteeSource{committees: committees}

	attestations := []models.Attestation{
		{
			AggregationBits: "0x03", // bits 0,1 set -> validators 42,43 attested
			Data:            models.AttestationData{Slot: 100, Index: 0},
		},
	}

	watched := map[string][]models.ValidatorIndex{
		"solo": {42, 43, 44},
	}

	got, err := SuboptimalAttestations(context.Background(), src, 100, 5, attestations, watched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts, ok := got["solo"]
	if !ok {
		t.Fatalf("expected a result for label 'solo', got %+v", got)
	}
	if counts.Included != 2 {
		t.Errorf("expected 2 included, got %d", counts.Included)
	}
	if counts.Missed != 1 {
		t.Errorf("expected 1 missed, got %d", counts.Missed)
	}
}

func TestSuboptimalAttestationsIgnoresUnassignedValidators(t *testing.T) {
	committees := []models.Committee{
		{Index: 0, Slot: 100, Validators: []string{"42"}},
	}
	src := &fakeCommitteeSource{committees: committees}

	watched := map[string][]models.ValidatorIndex{
		"solo": {42, 999},
	}

	got, err := SuboptimalAttestations(context.Background(), src, 100, 5, nil, watched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := got["solo"]
	if counts.Included != 0 || counts.Missed != 1 {
		t.Errorf("expected only the assigned validator counted as missed, got %+v", counts)
	}
}
