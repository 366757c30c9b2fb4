package probes

import "math"

// EntryQueueDuration estimates the wait, in seconds, before a newly
// deposited validator becomes active, given the current network-wide
// active and pending-queued validator counts. It follows the mainnet
// activation churn rule: at most
// max(minPerEpochChurnLimit, activeCount/churnLimitQuotient) validators
// activate per epoch, so a validator at the back of the queue waits
// ceil(pendingCount/churnLimit) epochs.
func EntryQueueDuration(activeCount, pendingCount int, secondsPerSlot, slotsPerEpoch int64) float64 {
	if pendingCount <= 0 {
		return 0
	}

	churnLimit := activeCount / churnLimitQuotient
	if churnLimit < minPerEpochChurnLimit {
		churnLimit = minPerEpochChurnLimit
	}

	epochsToWait := math.Ceil(float64(pendingCount) / float64(churnLimit))
	epochDurationSeconds := float64(secondsPerSlot * slotsPerEpoch)
	return epochsToWait * epochDurationSeconds
}
