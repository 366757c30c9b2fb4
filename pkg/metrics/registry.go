// Package metrics owns the Prometheus registry and every gauge/counter
// this watcher exposes. The validator-scoped gauges are keyed by a
// label schema discovered at startup from the labels file: the first
// non-empty set of label keys seen becomes permanent for the process's
// lifetime, mirroring how the original Python implementation picked an
// arbitrary watched key's label dict to learn the schema from.
package metrics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const namespace = "eth_validator_watcher"

// Registry owns every metric this watcher exposes on /metrics.
type Registry struct {
	reg    *prometheus.Registry
	logger *logrus.Logger

	mu         sync.Mutex
	labelKeys  []string
	schemaSet  bool

	// Fixed-schema metrics, always registered.
	currentSlot        prometheus.Gauge
	currentEpoch       prometheus.Gauge
	ethPrice           prometheus.Gauge
	entryQueueDuration prometheus.Gauge
	exitedValidators   prometheus.Counter
	slashedValidators  prometheus.Counter
	badRelayCount      prometheus.Counter
	statusCount        *prometheus.GaugeVec // scope, status
	syncCommitteeCount *prometheus.GaugeVec // scope

	// Schema-dependent metrics, created once EnsureSchema has run.
	ourValidatorCount      *prometheus.GaugeVec // label_keys...
	missedAttestations     *prometheus.GaugeVec // label_keys...
	doubleMissedAtt        *prometheus.GaugeVec // label_keys...
	suboptimalSource       *prometheus.GaugeVec // label_keys...
	suboptimalTarget       *prometheus.GaugeVec // label_keys...
	suboptimalHead         *prometheus.GaugeVec // label_keys...
	idealRewards           *prometheus.GaugeVec // scope
	actualRewards          *prometheus.GaugeVec // scope
	suboptimalRate         *prometheus.GaugeVec // scope, category
	proposedBlocks         *prometheus.GaugeVec // label_keys...
	missedBlocks           *prometheus.GaugeVec // label_keys...
	missedBlocksFinalized  *prometheus.GaugeVec // label_keys...
	futureBlockProposals   *prometheus.GaugeVec // label_keys...
	blockRewardGwei        *prometheus.GaugeVec // label_keys...
	feeRecipientMismatch   *prometheus.GaugeVec // label_keys...
	syncCommitteeReward    *prometheus.GaugeVec // label_keys...
	mevRelayDeliveries     *prometheus.GaugeVec // label_keys..., mev_relay
	missedAttPerValidator  *prometheus.CounterVec // label_keys...
	blockAttIncluded       *prometheus.GaugeVec // label_keys...
	blockAttMissed         *prometheus.GaugeVec // label_keys...
}

// New creates a Registry and registers every fixed-schema metric.
func New(logger *logrus.Logger) *Registry {
	r := &Registry{
		reg:    prometheus.NewRegistry(),
		logger: logger,
		currentSlot: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "current_slot", Help: "Current slot number observed by the watcher.",
		}),
		currentEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "current_epoch", Help: "Current epoch number observed by the watcher.",
		}),
		ethPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "eth_price_usd", Help: "Last known ETH/USD spot price.",
		}),
		entryQueueDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "entry_queue_duration_seconds", Help: "Estimated wait time for a new deposit to become active.",
		}),
		exitedValidators: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "our_exited_validators_total", Help: "Number of watched validators observed to have exited.",
		}),
		slashedValidators: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "our_slashed_validators_total", Help: "Number of watched validators observed to have been slashed.",
		}),
		badRelayCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bad_relay_count", Help: "Number of our proposed blocks whose builder could not be identified through any configured relay.",
		}),
		statusCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "validator_status_count", Help: "Number of validators by lifecycle status.",
		}, []string{"scope", "status"}),
		syncCommitteeCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sync_committee_membership_count", Help: "Number of validators currently assigned to the sync committee.",
		}, []string{"scope"}),
	}

	r.reg.MustRegister(
		r.currentSlot, r.currentEpoch, r.ethPrice, r.entryQueueDuration,
		r.exitedValidators, r.slashedValidators, r.badRelayCount, r.statusCount, r.syncCommitteeCount,
	)

	return r
}

// Registerer exposes the underlying prometheus.Registry for promhttp.
func (r *Registry) Registerer() *prometheus.Registry { return r.reg }

// EnsureSchema freezes the per-validator label key schema on first call
// with a non-empty key set, and registers every schema-dependent gauge
// using those keys plus whatever extra dimensions each metric needs. A
// later call with a different key set is a no-op: per invariant, the
// label schema is frozen for the process's lifetime once established.
func (r *Registry) EnsureSchema(keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schemaSet {
		if !sameKeys(r.labelKeys, keys) {
			r.logger.WithFields(logrus.Fields{
				"frozen": r.labelKeys,
				"got":    keys,
			}).Warn("🚨 label key schema already frozen, ignoring mismatched schema")
		}
		return
	}
	if len(keys) == 0 {
		return
	}

	sorted := append([]string(nil), keys...)
	sortStrings(sorted)
	r.labelKeys = sorted
	r.schemaSet = true

	gv := func(name, help string, extra ...string) *prometheus.GaugeVec {
		labels := append(append([]string(nil), sorted...), extra...)
		v := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, labels)
		r.reg.MustRegister(v)
		return v
	}
	cv := func(name, help string, extra ...string) *prometheus.CounterVec {
		labels := append(append([]string(nil), sorted...), extra...)
		v := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
		r.reg.MustRegister(v)
		return v
	}
	// aggregateGV builds a vector keyed only on its explicit dimensions,
	// not the per-validator label schema: network-vs-our reward totals
	// are a single aggregate per scope, not one series per label set.
	aggregateGV := func(name, help string, extra ...string) *prometheus.GaugeVec {
		v := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, extra)
		r.reg.MustRegister(v)
		return v
	}

	r.ourValidatorCount = gv("our_validator_count", "Number of watched validators per label set.")
	r.missedAttestations = gv("our_missed_attestations", "Number of missed attestations per label set this epoch.")
	r.doubleMissedAtt = gv("our_double_missed_attestations", "Number of consecutive two-epoch missed attestations per label set.")
	r.suboptimalSource = gv("our_suboptimal_source_votes", "Number of suboptimal source votes per label set.")
	r.suboptimalTarget = gv("our_suboptimal_target_votes", "Number of suboptimal target votes per label set.")
	r.suboptimalHead = gv("our_suboptimal_head_votes", "Number of suboptimal head votes per label set.")
	r.idealRewards = aggregateGV("ideal_consensus_rewards_gwei", "Ideal consensus reward in Gwei.", "scope")
	r.actualRewards = aggregateGV("consensus_rewards_gwei", "Actual consensus reward in Gwei.", "scope")
	r.suboptimalRate = aggregateGV("suboptimal_rewards_rate", "Share of reward categories that were suboptimal.", "scope", "category")
	r.proposedBlocks = gv("our_proposed_blocks", "Number of blocks proposed per label set.")
	r.missedBlocks = gv("our_missed_blocks", "Number of missed block proposals (head) per label set.")
	r.missedBlocksFinalized = gv("our_missed_blocks_finalized", "Number of missed block proposals confirmed at finality per label set.")
	r.futureBlockProposals = gv("our_future_block_proposals", "Number of upcoming block proposals per label set.")
	r.blockRewardGwei = gv("our_block_reward_gwei", "Block reward in Gwei of the most recent block proposed per label set.")
	r.feeRecipientMismatch = gv("our_fee_recipient_mismatch_count", "Number of proposed blocks whose fee recipient didn't match the configured address.")
	r.syncCommitteeReward = gv("our_sync_committee_reward_gwei", "Sync committee reward in Gwei for the most recent processed slot per label set.")
	r.mevRelayDeliveries = gv("mev_relay_deliveries", "Number of blocks delivered through a given MEV relay.", "mev_relay")
	r.missedAttPerValidator = cv("missed_attestations_per_validator_total", "Number of missed attestations per label set, incremented once per missed validator per epoch.")
	r.blockAttIncluded = gv("our_block_attestations_included", "Number of our attestations included in the processed block per label set.")
	r.blockAttMissed = gv("our_block_attestations_missed", "Number of our attestations missing from the processed block per label set.")

	r.logger.WithField("keys", sorted).Info("📊 label key schema frozen")
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]string(nil), a...), append([]string(nil), b...)
	sortStrings(sa)
	sortStrings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// labelValues returns this registry's frozen label keys' values from a
// per-validator label map, in schema order, falling back to "" for any
// missing key (a validator loaded before the schema froze, or loaded
// with a partial label set).
func (r *Registry) labelValues(labels map[string]string) []string {
	out := make([]string, len(r.labelKeys))
	for i, k := range r.labelKeys {
		out[i] = labels[k]
	}
	return out
}

// SetSlot updates the current slot/epoch gauges.
func (r *Registry) SetSlot(slot models.Slot, epoch models.Epoch) {
	r.currentSlot.Set(float64(slot))
	r.currentEpoch.Set(float64(epoch))
}

// SetEthPrice updates the spot price gauge.
func (r *Registry) SetEthPrice(usd float64) { r.ethPrice.Set(usd) }

// SetEntryQueueDuration updates the entry queue wait-time gauge.
func (r *Registry) SetEntryQueueDuration(seconds float64) { r.entryQueueDuration.Set(seconds) }

// IncExitedValidators bumps the exited-validator counter.
func (r *Registry) IncExitedValidators(n int) { r.exitedValidators.Add(float64(n)) }

// IncSlashedValidators bumps the slashed-validator counter.
func (r *Registry) IncSlashedValidators(n int) { r.slashedValidators.Add(float64(n)) }

// SetStatusCount sets the validator-status gauge for a scope/status pair.
func (r *Registry) SetStatusCount(scope, status string, count int) {
	r.statusCount.WithLabelValues(scope, status).Set(float64(count))
}

// SetSyncCommitteeCount sets the sync committee membership gauge for a scope.
func (r *Registry) SetSyncCommitteeCount(scope string, count int) {
	r.syncCommitteeCount.WithLabelValues(scope).Set(float64(count))
}

// ResetOurValidatorCount clears the watched-validator-count gauge;
// called once per epoch boundary before repopulating it, per spec's
// "cleared and repopulated at every epoch boundary" requirement.
func (r *Registry) ResetOurValidatorCount() {
	r.withSchema(func() { r.ourValidatorCount.Reset() })
}

// SetOurValidatorCount sets the watched-validator-count gauge for one label set.
func (r *Registry) SetOurValidatorCount(labels map[string]string, count int) {
	r.withSchema(func() { r.ourValidatorCount.WithLabelValues(r.labelValues(labels)...).Set(float64(count)) })
}

// SetMissedAttestations sets the missed-attestation gauge for one label set.
func (r *Registry) SetMissedAttestations(labels map[string]string, count int) {
	r.withSchema(func() { r.missedAttestations.WithLabelValues(r.labelValues(labels)...).Set(float64(count)) })
}

// SetDoubleMissedAttestations sets the two-epoch-streak missed-attestation gauge.
func (r *Registry) SetDoubleMissedAttestations(labels map[string]string, count int) {
	r.withSchema(func() { r.doubleMissedAtt.WithLabelValues(r.labelValues(labels)...).Set(float64(count)) })
}

// SetSuboptimalVotes sets the three suboptimal-vote gauges for one label set.
func (r *Registry) SetSuboptimalVotes(labels map[string]string, source, target, head int) {
	r.withSchema(func() {
		vals := r.labelValues(labels)
		r.suboptimalSource.WithLabelValues(vals...).Set(float64(source))
		r.suboptimalTarget.WithLabelValues(vals...).Set(float64(target))
		r.suboptimalHead.WithLabelValues(vals...).Set(float64(head))
	})
}

// SetRewards sets the aggregate ideal/actual reward gauges for a scope
// ("net" or "our"). These are process-wide totals, not broken down by
// label set.
func (r *Registry) SetRewards(scope string, ideal, actual models.SignedGwei) {
	r.idealRewards.WithLabelValues(scope).Set(float64(ideal))
	r.actualRewards.WithLabelValues(scope).Set(float64(actual))
}

// SetSuboptimalRate sets the suboptimal-vote rate for one scope/category
// pair (category is "source", "target", or "head").
func (r *Registry) SetSuboptimalRate(scope, category string, rate float64) {
	r.suboptimalRate.WithLabelValues(scope, category).Set(rate)
}

// IncProposedBlocks bumps the proposed-block counter for one label set,
// on each confirmed successful proposal.
func (r *Registry) IncProposedBlocks(labels map[string]string) {
	r.withSchema(func() { r.proposedBlocks.WithLabelValues(r.labelValues(labels)...).Inc() })
}

// IncMissedBlocks bumps the missed-block-at-head counter for one label
// set, on each slot where our proposer produced no block.
func (r *Registry) IncMissedBlocks(labels map[string]string) {
	r.withSchema(func() { r.missedBlocks.WithLabelValues(r.labelValues(labels)...).Inc() })
}

// IncMissedBlocksFinalized bumps the missed-block-confirmed-at-finality
// counter for one label set.
func (r *Registry) IncMissedBlocksFinalized(labels map[string]string) {
	r.withSchema(func() { r.missedBlocksFinalized.WithLabelValues(r.labelValues(labels)...).Inc() })
}

// SetFutureBlockProposals sets the upcoming-proposal gauge for one label
// set; unlike the counters above, this is recomputed wholesale on every
// call rather than accumulated.
func (r *Registry) SetFutureBlockProposals(labels map[string]string, count int) {
	r.withSchema(func() { r.futureBlockProposals.WithLabelValues(r.labelValues(labels)...).Set(float64(count)) })
}

// SetBlockReward sets the per-label-set block reward gauge.
func (r *Registry) SetBlockReward(labels map[string]string, gwei models.SignedGwei) {
	r.withSchema(func() { r.blockRewardGwei.WithLabelValues(r.labelValues(labels)...).Set(float64(gwei)) })
}

// IncFeeRecipientMismatch bumps the fee-recipient mismatch gauge.
func (r *Registry) IncFeeRecipientMismatch(labels map[string]string) {
	r.withSchema(func() { r.feeRecipientMismatch.WithLabelValues(r.labelValues(labels)...).Inc() })
}

// SetSyncCommitteeReward sets the sync committee reward gauge for one label set.
func (r *Registry) SetSyncCommitteeReward(labels map[string]string, gwei models.SignedGwei) {
	r.withSchema(func() { r.syncCommitteeReward.WithLabelValues(r.labelValues(labels)...).Set(float64(gwei)) })
}

// IncMEVRelayDeliveries bumps the delivery gauge for the relay that
// delivered one of our validators' blocks.
func (r *Registry) IncMEVRelayDeliveries(labels map[string]string, relayDisplayName string) {
	r.withSchema(func() {
		vals := append(r.labelValues(labels), relayDisplayName)
		r.mevRelayDeliveries.WithLabelValues(vals...).Inc()
	})
}

// IncBadRelayCount bumps the counter for one of our blocks whose builder
// could not be matched against any configured relay's bid trace.
func (r *Registry) IncBadRelayCount() { r.badRelayCount.Inc() }

// SetBlockAttestationVotes sets the per-block attestation inclusion gauges
// for one label set.
func (r *Registry) SetBlockAttestationVotes(labels map[string]string, included, missed int) {
	r.withSchema(func() {
		vals := r.labelValues(labels)
		r.blockAttIncluded.WithLabelValues(vals...).Set(float64(included))
		r.blockAttMissed.WithLabelValues(vals...).Set(float64(missed))
	})
}

// IncMissedAttestationsPerValidator bumps the per-validator missed
// attestation counter for one missed validator's label set. Called once
// per missed pubkey per epoch, mirroring the original's
// missed_attestations_per_validator_count counter.
func (r *Registry) IncMissedAttestationsPerValidator(labels map[string]string) {
	r.withSchema(func() { r.missedAttPerValidator.WithLabelValues(r.labelValues(labels)...).Inc() })
}

// withSchema runs fn only once the label schema has been established;
// calls before EnsureSchema are silently dropped since there is no
// validator, and therefore no labels, to report against yet.
func (r *Registry) withSchema(fn func()) {
	r.mu.Lock()
	ready := r.schemaSet
	r.mu.Unlock()
	if !ready {
		return
	}
	fn()
}

// DisplayName renders a label map for logging, e.g. "pool=solo,team=a".
func DisplayName(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	sortStrings(parts)
	return strings.Join(parts, ",")
}
