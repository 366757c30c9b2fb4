package probes

import (
	"context"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/duties"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// LivenessSource is the subset of beacon.Client this probe needs.
type LivenessSource interface {
	GetValidatorsLiveness(ctx context.Context, beaconType models.BeaconType, epoch models.Epoch, indices []models.ValidatorIndex) ([]models.ValidatorLiveness, error)
}

// MissedAttestations reports which of the given validators failed to
// attest during epoch-1 (the most recent epoch the beacon node can
// reliably answer liveness queries for). It returns an empty set before
// epoch 1, since there is no prior epoch to ask about yet.
func MissedAttestations(ctx context.Context, client LivenessSource, beaconType models.BeaconType, epoch models.Epoch, indices []models.ValidatorIndex) (map[models.ValidatorIndex]bool, error) {
	if epoch < 1 || len(indices) == 0 {
		return map[models.ValidatorIndex]bool{}, nil
	}

	liveness, err := client.GetValidatorsLiveness(ctx, beaconType, epoch-1, indices)
	if err != nil {
		return nil, err
	}

	isLive := duties.ProcessLiveness(liveness)
	dead := make(map[models.ValidatorIndex]bool)
	for _, idx := range indices {
		if !isLive[idx] {
			dead[idx] = true
		}
	}
	return dead, nil
}

// DoubleMissedAttestations returns the validators present in both the
// current and the previous epoch's missed set: two consecutive misses
// in a row, the threshold worth a louder alert than a single miss.
// Returns an empty set before epoch 2, since a "previous epoch" missed
// set only exists from there on.
func DoubleMissedAttestations(epoch models.Epoch, curr, prev map[models.ValidatorIndex]bool) map[models.ValidatorIndex]bool {
	double := make(map[models.ValidatorIndex]bool)
	if epoch < 2 {
		return double
	}
	for idx := range curr {
		if prev[idx] {
			double[idx] = true
		}
	}
	return double
}
