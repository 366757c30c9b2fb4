// Package probes implements the intra-epoch and per-slot checks this
// watcher runs against a beacon node: reward suboptimality, attestation
// and block-proposal liveness, sync committee duty, fee recipient
// compliance and MEV relay verification. Each probe is a small function
// or struct that takes exactly the beacon/metrics/state it needs, so
// the orchestrator can sequence them in the exact order the control
// flow requires without any probe depending on another's internals.
package probes

const (
	// minPerEpochChurnLimit and churnLimitQuotient are the network
	// constants governing how many validators can enter or exit the
	// active set per epoch: churn_limit = max(minPerEpochChurnLimit,
	// active_validator_count / churnLimitQuotient).
	minPerEpochChurnLimit = 4
	churnLimitQuotient    = 65536

	// slotForMissedAttestationsProcess and slotForRewardsProcess are the
	// slot-in-epoch offsets at which the prior epoch's attestation and
	// reward data is expected to be available from the beacon node.
	slotForMissedAttestationsProcess = 16
	slotForRewardsProcess            = 16

	// defaultEpochsPerSyncCommitteePeriod is used when a beacon node's
	// /spec response omits EPOCHS_PER_SYNC_COMMITTEE_PERIOD.
	defaultEpochsPerSyncCommitteePeriod = 256

	// SlotForMissedAttestationsProcess and SlotForRewardsProcess are the
	// slot-in-epoch offsets the orchestrator waits for before running
	// the missed-attestations and rewards probes, exported so the slot
	// loop can gate on the same constants this package uses internally.
	SlotForMissedAttestationsProcess = slotForMissedAttestationsProcess
	SlotForRewardsProcess            = slotForRewardsProcess

	// DefaultEpochsPerSyncCommitteePeriod is the fallback committee
	// period length the orchestrator passes to SyncCommitteeTracker.Roster
	// when a beacon node's /spec response omits the field.
	DefaultEpochsPerSyncCommitteePeriod = defaultEpochsPerSyncCommitteePeriod
)
