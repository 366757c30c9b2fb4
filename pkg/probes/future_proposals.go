package probes

import (
	"context"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// RelayRegistrationChecker is the subset of relay.Verifier this probe
// needs.
type RelayRegistrationChecker interface {
	CheckValidatorRegistrationForSlots(ctx context.Context, slotProposals []models.ProposerDuty, ourLabels map[string]map[string]string) ([]models.ProposerDuty, error)
}

// FutureBlockProposals finds our upcoming proposer duties at or after
// the current slot and, on a new epoch with a labeled watched set,
// cross-checks the current epoch's duties against every relay's
// registered-builder listing.
//
// upcoming must already be filtered to this watcher's own pubkeys
// (proposer.Schedule.DutiesFrom returns every cached duty; the caller
// narrows it to "ours" before calling, since the schedule itself has no
// notion of which pubkeys are watched).
func FutureBlockProposals(ctx context.Context, checker RelayRegistrationChecker, logger *logrus.Logger, slot models.Slot, isNewEpoch bool, upcoming []models.ProposerDuty, currentEpochEnd models.Slot, ourLabels map[string]map[string]string) ([]models.ProposerDuty, error) {
	if isNewEpoch {
		for _, duty := range upcoming {
			logger.WithFields(logrus.Fields{
				"pubkey": shortPubkey(duty.Pubkey),
				"slot":   duty.Slot,
			}).Info("💍 upcoming block proposal")
		}
	}

	if !isNewEpoch || len(upcoming) == 0 || len(ourLabels) == 0 {
		return upcoming, nil
	}

	currentEpochDuties := make([]models.ProposerDuty, 0, len(upcoming))
	for _, duty := range upcoming {
		if duty.Slot < currentEpochEnd {
			currentEpochDuties = append(currentEpochDuties, duty)
		}
	}

	unregistered, err := checker.CheckValidatorRegistrationForSlots(ctx, currentEpochDuties, ourLabels)
	if err != nil {
		return upcoming, err
	}
	for _, duty := range unregistered {
		logger.WithFields(logrus.Fields{
			"pubkey": shortPubkey(duty.Pubkey),
			"slot":   duty.Slot,
		}).Warn("❗ not registered to any MEV relay")
	}

	return upcoming, nil
}

func shortPubkey(pubkey string) string {
	if len(pubkey) <= 10 {
		return pubkey
	}
	return pubkey[:10]
}
