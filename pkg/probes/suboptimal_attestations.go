package probes

import (
	"context"
	"fmt"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/duties"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// CommitteeSource is the subset of beacon.Client this probe needs.
type CommitteeSource interface {
	GetCommittees(ctx context.Context, stateID string, epoch *models.Epoch, slot *models.Slot) ([]models.Committee, error)
}

// AttestationVoteCounts is the per-label-set tally a caller hands to
// pkg/metrics.Registry.SetBlockAttestationVotes.
type AttestationVoteCounts struct {
	Included int
	Missed   int
}

// SuboptimalAttestations cross-references a slot's included attestations
// against the committees assigned to that slot's epoch, and tallies how
// many of the watched validators in watchedByLabels were included versus
// missed. Validators absent from the slot's committees entirely (not
// assigned to attest this slot) are neither counted as included nor
// missed.
func SuboptimalAttestations(ctx context.Context, client CommitteeSource, slot models.Slot, epoch models.Epoch, attestations []models.Attestation, watchedByLabels map[string][]models.ValidatorIndex) (map[string]AttestationVoteCounts, error) {
	committees, err := client.GetCommittees(ctx, "head", &epoch, &slot)
	if err != nil {
		return nil, err
	}

	attested, err := duties.ProcessAttestations(attestations, committees)
	if err != nil {
		return nil, err
	}

	assigned := make(map[models.ValidatorIndex]bool)
	for _, committee := range committees {
		for _, v := range committee.Validators {
			var idx models.ValidatorIndex
			if _, err := fmt.Sscanf(v, "%d", &idx); err == nil {
				assigned[idx] = true
			}
		}
	}

	result := make(map[string]AttestationVoteCounts, len(watchedByLabels))
	for label, indices := range watchedByLabels {
		counts := AttestationVoteCounts{}
		for _, idx := range indices {
			if !assigned[idx] {
				continue
			}
			if attested[idx] {
				counts.Included++
			} else {
				counts.Missed++
			}
		}
		result[label] = counts
	}
	return result, nil
}
