package probes

import (
	"context"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/duties"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// RewardsSource is the subset of beacon.Client this probe needs.
type RewardsSource interface {
	GetRewards(ctx context.Context, epoch models.Epoch, indices []models.ValidatorIndex) (*models.RewardsResponse, error)
}

// RewardsSummary is the aggregate outcome of a Rewards probe run for
// one scope (network-wide or watched-set).
type RewardsSummary struct {
	PerValidator          map[models.ValidatorIndex]duties.RewardData
	IdealTotal            models.SignedGwei
	ActualTotal           models.SignedGwei
	SuboptimalSourceCount int
	SuboptimalTargetCount int
	SuboptimalHeadCount   int
}

// SuboptimalRate returns the share of validators in this summary whose
// given category's vote was suboptimal, or 0 if there were none to
// judge.
func (s RewardsSummary) SuboptimalRate(count int) float64 {
	if len(s.PerValidator) == 0 {
		return 0
	}
	return float64(count) / float64(len(s.PerValidator))
}

// Rewards fetches attestation reward data for epoch-2 (the last epoch
// the beacon node has finished computing rewards for) and classifies
// each validator's source/target/head vote as ideal or suboptimal.
// Returns a zero-value summary before epoch 2, matching the original
// watcher's gate: a reward epoch two behind the current one can't exist
// yet.
//
// effectiveBalances maps each validator this call should cover to its
// current effective balance, used to look up the matching ideal reward
// row. Passing a nil/empty indices slice to GetRewards asks the beacon
// node for every validator's rewards at once (the network-wide pass);
// passing the watched indices narrows it to just those validators.
func Rewards(ctx context.Context, client RewardsSource, epoch models.Epoch, indices []models.ValidatorIndex, effectiveBalances map[models.ValidatorIndex]models.Gwei) (RewardsSummary, error) {
	if epoch < 2 {
		return RewardsSummary{}, nil
	}

	resp, err := client.GetRewards(ctx, epoch-2, indices)
	if err != nil {
		return RewardsSummary{}, err
	}

	perValidator, err := duties.ProcessRewards(resp, effectiveBalances)
	if err != nil {
		return RewardsSummary{}, err
	}

	summary := RewardsSummary{PerValidator: perValidator}
	for _, data := range perValidator {
		summary.IdealTotal += models.SignedGwei(data.IdealTotal)
		summary.ActualTotal += data.ActualTotal
		if data.SuboptimalSource {
			summary.SuboptimalSourceCount++
		}
		if data.SuboptimalTarget {
			summary.SuboptimalTargetCount++
		}
		if data.SuboptimalHead {
			summary.SuboptimalHeadCount++
		}
	}
	return summary, nil
}
