// Package orchestrator ties every other package into the watcher's main
// slot loop: on each epoch boundary it reconciles the watched validator
// set against the network and emits the epoch-level probes, then on
// every slot it runs the block-dependent probes around a wait for the
// slot's block to appear.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/beacon"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/classifier"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/clock"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/execution"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/liveness"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/metrics"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/notify"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/notify/slack"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/price"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/probes"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/proposer"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/relay"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/watchedset"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/window"
	"github.com/sirupsen/logrus"
)

const (
	missedBlockTimeoutSec = 4
	slotsPerEpochDefault  = 32
)

// chuckNorrisJokes is printed once per epoch-worth of pre-genesis slots,
// a purely cosmetic nod to the original watcher's waiting-room humor.
var chuckNorrisJokes = []string{
	"Chuck Norris can attest to two different chains at the same slot. Both finalize.",
	"Chuck Norris's validator has never been slashed. Slashing is afraid of him.",
	"Chuck Norris doesn't wait for finality. Finality waits for Chuck Norris.",
	"Chuck Norris's blocks never get reorged.",
	"The beacon chain didn't choose Chuck Norris as a validator. He chose it.",
}

// Orchestrator owns every client and stateful tracker the slot loop
// needs and drives it to completion or cancellation.
type Orchestrator struct {
	cfg    *models.Config
	logger *logrus.Logger

	beaconClient    *beacon.Client
	executionClient *execution.Client
	priceFetcher    *price.Fetcher
	watchedLoader   *watchedset.Loader
	relayVerifier   *relay.Verifier
	metricsRegistry *metrics.Registry
	heartbeat       *liveness.Heartbeat

	exitedTracker  *notify.ExitedValidators
	slashedTracker *notify.SlashedValidators

	beaconClk *clock.BeaconClock
	schedule  *proposer.Schedule
	syncTrack *probes.SyncCommitteeTracker
	finalized *probes.MissedBlockFinalizedCursor

	ourMissedByEpoch   *window.EpochWindow[map[models.ValidatorIndex]bool]
	ourActiveByEpoch   *window.EpochWindow[map[models.ValidatorIndex]models.Validator]
	netActiveByEpoch   *window.EpochWindow[map[models.ValidatorIndex]models.Validator]
	lastMissedAttEpoch *models.Epoch
	lastRewardsEpoch   *models.Epoch

	// ourLabelsByIndex is refreshed on every epoch boundary and read by
	// every per-slot probe in between, since a validator's labels don't
	// change mid-epoch.
	ourLabelsByIndex map[models.ValidatorIndex]map[string]string

	epochsPerSyncCommitteePeriod int64
}

// New builds an Orchestrator from a loaded configuration.
func New(cfg *models.Config, logger *logrus.Logger) *Orchestrator {
	registry := metrics.New(logger)

	var execClient *execution.Client
	if cfg.ExecutionURL != "" {
		execClient = execution.NewClient(cfg.ExecutionURL, time.Duration(cfg.BeaconTimeout), logger)
	}

	var chat notify.ChatSender
	if cfg.SlackChannel != "" && cfg.SlackToken != "" {
		chat = slack.New(cfg.SlackChannel, cfg.SlackToken, logger)
	}

	beaconClient := beacon.NewClient(cfg.BeaconURL, time.Duration(cfg.BeaconTimeout), logger)

	return &Orchestrator{
		cfg:             cfg,
		logger:          logger,
		beaconClient:    beaconClient,
		executionClient: execClient,
		priceFetcher:    price.NewFetcher(logger),
		watchedLoader:   watchedset.NewLoader(logger),
		relayVerifier:   relay.NewVerifier(cfg.RelayURLs, logger, registry),
		metricsRegistry: registry,
		heartbeat:       liveness.New(cfg.LivenessFile),
		exitedTracker:   notify.NewExitedValidators(logger, chat),
		slashedTracker:  notify.NewSlashedValidators(logger, chat),
		schedule:        proposer.NewSchedule(beaconClient, logger),
		syncTrack:       probes.NewSyncCommitteeTracker(),

		ourMissedByEpoch: window.New[map[models.ValidatorIndex]bool](window.DefaultCapacity),
		ourActiveByEpoch: window.New[map[models.ValidatorIndex]models.Validator](window.DefaultCapacity),
		netActiveByEpoch: window.New[map[models.ValidatorIndex]models.Validator](window.DefaultCapacity),
	}
}

// Run drives the slot loop until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	genesis, err := o.beaconClient.GetGenesis(ctx)
	if err != nil {
		return fmt.Errorf("fetching genesis: %w", err)
	}
	spec, err := o.beaconClient.GetSpec(ctx)
	if err != nil {
		return fmt.Errorf("fetching spec: %w", err)
	}
	if spec.SlotsPerEpoch == 0 {
		spec.SlotsPerEpoch = slotsPerEpochDefault
	}
	o.epochsPerSyncCommitteePeriod = spec.EpochsPerSyncCommitteePeriod
	if o.epochsPerSyncCommitteePeriod == 0 {
		o.epochsPerSyncCommitteePeriod = probes.DefaultEpochsPerSyncCommitteePeriod
	}

	o.beaconClk = clock.NewBeaconClock(genesis, spec, o.logger)
	o.finalized = probes.NewMissedBlockFinalizedCursor(o.beaconClk.CurrentSlot())

	iterator := clock.NewIterator(o.beaconClk)

	var watched *watchedset.WatchedSet
	var ourLabelsByPubkey map[string]map[string]string
	var ourPubkeys map[string]bool
	var previousEpoch *models.Epoch
	idx := 0

	for {
		slot, slotStart, err := iterator.Next(ctx)
		if err != nil {
			return err
		}

		if slot < 0 {
			o.printPreGenesisCountdown(slot, spec.SecondsPerSlot, spec.SlotsPerEpoch)
			_ = o.heartbeat.Touch()
			continue
		}

		epoch := o.beaconClk.SlotToEpoch(slot)
		slotInEpoch := int64(slot) % spec.SlotsPerEpoch
		isNewEpoch := previousEpoch == nil || *previousEpoch != epoch

		o.metricsRegistry.SetSlot(slot, epoch)

		if isNewEpoch {
			watched, ourLabelsByPubkey, ourPubkeys, err = o.reconcileEpoch(ctx, epoch)
			if err != nil {
				o.logger.WithError(err).Error("epoch reconciliation failed")
			}
		}

		o.runMissedAttestations(ctx, epoch, slotInEpoch)
		o.runRewards(ctx, epoch, slotInEpoch)

		if _, err := o.futureBlockProposals(ctx, slot, epoch, isNewEpoch, ourPubkeys, ourLabelsByPubkey); err != nil {
			o.logger.WithError(err).Warn("future block proposals probe failed")
		}

		o.runMissedBlocksFinalized(ctx, ourPubkeys)

		deadline := slotStart.Add(time.Duration(missedBlockTimeoutSec) * time.Second)
		if wait := time.Until(deadline); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		block, err := o.beaconClient.GetBlock(ctx, fmt.Sprintf("%d", slot))
		if err != nil {
			o.logger.WithError(err).Warn("failed to fetch block")
		}

		if block != nil {
			o.runSuboptimalAttestations(ctx, *block, slot, epoch)
			o.runFeeRecipient(ctx, *block)
		}

		o.runSyncCommitteeReward(ctx, slot)

		isOurValidator := o.runMissedBlockHead(ctx, slot, ourPubkeys)
		if isOurValidator && block != nil {
			o.relayVerifier.Process(ctx, slot, ourLabelsByPubkey)
			o.runBlockReward(ctx, slot, block.Message.ProposerIndex)
		}

		prev := epoch
		previousEpoch = &prev

		if err := o.heartbeat.Touch(); err != nil {
			o.logger.WithError(err).Warn("failed to touch liveness file")
		}

		if idx == 0 {
			go o.startMetricsServer()
		}
		idx++
	}
}

// countdown splits the number of seconds remaining until genesis into
// days/hours/minutes/seconds for the pre-genesis log line.
func countdown(slot models.Slot, secondsPerSlot int64) (days, hours, minutes, seconds int64) {
	remaining := -int64(slot) * secondsPerSlot
	days = remaining / 86400
	hours = (remaining % 86400) / 3600
	minutes = (remaining % 3600) / 60
	seconds = remaining % 60
	return
}

// jokeForSlot picks a Chuck Norris joke deterministically from the
// pre-genesis slot number, wrapping around the fixed joke list.
func jokeForSlot(slot models.Slot) (string, bool) {
	if len(chuckNorrisJokes) == 0 {
		return "", false
	}
	i := (-int64(slot)) % int64(len(chuckNorrisJokes))
	return chuckNorrisJokes[i], true
}

func (o *Orchestrator) printPreGenesisCountdown(slot models.Slot, secondsPerSlot, slotsPerEpoch int64) {
	days, hours, minutes, seconds := countdown(slot, secondsPerSlot)
	o.logger.Infof("⏱️ the chain will start in %d days, %d hours, %d minutes and %d seconds", days, hours, minutes, seconds)

	if int64(slot)%slotsPerEpoch == 0 {
		if joke, ok := jokeForSlot(slot); ok {
			o.logger.Infof("💪 %s", joke)
		}
	}
}

func (o *Orchestrator) startMetricsServer() {
	addr := fmt.Sprintf(":%d", o.cfg.MetricsPort)
	o.logger.WithField("address", addr).Info("starting metrics server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(o.metricsRegistry.Registerer(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{Addr: addr, Handler: mux}
	if err := server.ListenAndServe(); err != nil {
		o.logger.WithError(err).Error("metrics server exited")
	}
}

// reconcileEpoch reloads the watched set, fetches the full validator
// set, classifies it, and runs every epoch-boundary probe and metric
// update. Returns the watched set and pubkey lookups the rest of the
// slot needs.
func (o *Orchestrator) reconcileEpoch(ctx context.Context, epoch models.Epoch) (*watchedset.WatchedSet, map[string]map[string]string, map[string]bool, error) {
	watched, err := o.watchedLoader.Load(ctx, o.cfg.PubkeysFilePath, o.cfg.LabelsFilePath, o.cfg.RemoveFirstLabel, o.cfg.Web3SignerURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading watched set: %w", err)
	}

	if err := o.schedule.Update(ctx, epoch); err != nil {
		o.logger.WithError(err).Warn("failed to update proposer schedule for current epoch")
	}
	if err := o.schedule.Update(ctx, epoch+1); err != nil {
		o.logger.WithError(err).Warn("failed to update proposer schedule for next epoch")
	}
	o.schedule.Cleanup(o.beaconClk.EpochToSlot(epoch - 2))

	all, err := o.beaconClient.GetAllValidators(ctx, "head")
	if err != nil {
		return watched, nil, nil, fmt.Errorf("fetching validator set: %w", err)
	}

	result := classifier.Classify(all, watched)

	if len(watched.LabelKeys) > 0 {
		o.metricsRegistry.EnsureSchema(watched.LabelKeys)
	}

	o.metricsRegistry.SetStatusCount(string(classifier.ScopeNetwork), "pending_queued", len(result.PendingQueued[classifier.ScopeNetwork]))
	o.metricsRegistry.SetStatusCount(string(classifier.ScopeOurs), "pending_queued", len(result.PendingQueued[classifier.ScopeOurs]))
	o.metricsRegistry.SetStatusCount(string(classifier.ScopeNetwork), "active", len(result.Active[classifier.ScopeNetwork]))
	o.metricsRegistry.SetStatusCount(string(classifier.ScopeOurs), "active", len(result.Active[classifier.ScopeOurs]))

	o.metricsRegistry.ResetOurValidatorCount()
	ourCountByLabelKey := map[string]int{}
	ourLabelsByKey := map[string]map[string]string{}
	for _, idx := range result.Active[classifier.ScopeOurs] {
		labels := result.OurLabels[idx]
		key := metrics.DisplayName(labels)
		ourCountByLabelKey[key]++
		ourLabelsByKey[key] = labels
	}
	for key, count := range ourCountByLabelKey {
		o.metricsRegistry.SetOurValidatorCount(ourLabelsByKey[key], count)
	}

	netActive := map[models.ValidatorIndex]models.Validator{}
	for _, idx := range result.Active[classifier.ScopeNetwork] {
		netActive[idx] = models.Validator{Index: idx}
	}
	o.netActiveByEpoch.Set(epoch, netActive)

	ourActive := map[models.ValidatorIndex]models.Validator{}
	for idx, v := range result.OurValidators {
		for _, activeIdx := range result.Active[classifier.ScopeOurs] {
			if activeIdx == idx {
				ourActive[idx] = v
			}
		}
	}
	o.ourActiveByEpoch.Set(epoch, ourActive)

	exitedUnslashed := map[models.ValidatorIndex]models.Validator{}
	for idx, v := range result.OurValidators {
		if v.Status == models.StatusExitedUnslashed {
			exitedUnslashed[idx] = v
		}
	}
	withdrawable := map[models.ValidatorIndex]models.Validator{}
	for idx, v := range result.OurValidators {
		if v.Status == models.StatusWithdrawalPossible || v.Status == models.StatusWithdrawalDone {
			withdrawable[idx] = v
		}
	}
	o.exitedTracker.Process(exitedUnslashed, withdrawable)

	netSlashed := map[models.ValidatorIndex]models.Validator{}
	for _, v := range all {
		if v.Status == models.StatusExitedSlashed || v.Status == models.StatusActiveSlashed {
			netSlashed[v.Index] = v
		}
	}
	ourIndexSet := map[models.ValidatorIndex]bool{}
	for idx := range result.OurValidators {
		ourIndexSet[idx] = true
	}
	o.slashedTracker.Process(netSlashed, ourIndexSet)

	duration := probes.EntryQueueDuration(len(result.Active[classifier.ScopeNetwork]), len(result.PendingQueued[classifier.ScopeNetwork]), o.beaconClk.SecondsPerSlot(), o.beaconClk.SlotsPerEpoch())
	o.metricsRegistry.SetEntryQueueDuration(duration)

	o.metricsRegistry.SetEthPrice(probes.SpotPrice(o.priceFetcher))

	if roster, err := o.syncTrack.Roster(ctx, o.beaconClient, epoch, o.epochsPerSyncCommitteePeriod); err == nil {
		count := probes.SyncCommitteeMembership(roster, result.OurIndices)
		o.metricsRegistry.SetSyncCommitteeCount(string(classifier.ScopeOurs), count)
	} else {
		o.logger.WithError(err).Warn("failed to refresh sync committee roster")
	}

	o.ourLabelsByIndex = result.OurLabels

	ourLabelsByPubkey := map[string]map[string]string{}
	for idx, v := range result.OurValidators {
		if l, ok := result.OurLabels[idx]; ok {
			ourLabelsByPubkey[v.Data.Pubkey] = l
		}
	}

	ourPubkeys := map[string]bool{}
	for pubkey := range watched.Pubkeys {
		ourPubkeys[pubkey] = true
	}

	return watched, ourLabelsByPubkey, ourPubkeys, nil
}

func (o *Orchestrator) runMissedAttestations(ctx context.Context, epoch models.Epoch, slotInEpoch int64) {
	if slotInEpoch < probes.SlotForMissedAttestationsProcess {
		return
	}
	if o.lastMissedAttEpoch != nil && *o.lastMissedAttEpoch == epoch {
		return
	}

	active, ok := o.ourActiveByEpoch.Get(epoch - 1)
	if !ok {
		active, ok = o.ourActiveByEpoch.Get(epoch)
		if !ok {
			return
		}
	}
	indices := make([]models.ValidatorIndex, 0, len(active))
	for idx := range active {
		indices = append(indices, idx)
	}

	missed, err := probes.MissedAttestations(ctx, o.beaconClient, o.cfg.BeaconType, epoch, indices)
	if err != nil {
		o.logger.WithError(err).Warn("missed attestations probe failed")
		return
	}

	prevMissed, _ := o.ourMissedByEpoch.Get(epoch - 1)
	double := probes.DoubleMissedAttestations(epoch, missed, prevMissed)
	for idx := range double {
		o.logger.WithField("validator_index", idx).Warn("❌❌ validator double-missed an attestation")
	}

	o.ourMissedByEpoch.Set(epoch, missed)
	o.metricsRegistry.SetMissedAttestations(map[string]string{}, len(missed))
	o.metricsRegistry.SetDoubleMissedAttestations(map[string]string{}, len(double))

	for idx := range missed {
		o.metricsRegistry.IncMissedAttestationsPerValidator(o.ourLabelsByIndex[idx])
	}

	e := epoch
	o.lastMissedAttEpoch = &e
}

func (o *Orchestrator) runRewards(ctx context.Context, epoch models.Epoch, slotInEpoch int64) {
	if slotInEpoch < probes.SlotForRewardsProcess {
		return
	}
	if o.lastRewardsEpoch != nil && *o.lastRewardsEpoch == epoch {
		return
	}

	netActive, _ := o.netActiveByEpoch.Get(epoch - 2)
	ourActive, _ := o.ourActiveByEpoch.Get(epoch - 2)

	netBalances := map[models.ValidatorIndex]models.Gwei{}
	for idx := range netActive {
		netBalances[idx] = 32_000_000_000
	}
	ourBalances := map[models.ValidatorIndex]models.Gwei{}
	for idx, v := range ourActive {
		bal := v.Data.EffectiveBalance
		if bal == 0 {
			bal = 32_000_000_000
		}
		ourBalances[idx] = bal
	}

	netRewards, err := probes.Rewards(ctx, o.beaconClient, epoch, nil, netBalances)
	if err != nil {
		o.logger.WithError(err).Warn("network-wide rewards probe failed")
	} else {
		o.metricsRegistry.SetRewards(string(classifier.ScopeNetwork), netRewards.IdealTotal, netRewards.ActualTotal)
		o.metricsRegistry.SetSuboptimalRate(string(classifier.ScopeNetwork), "source", netRewards.SuboptimalRate(netRewards.SuboptimalSourceCount))
		o.metricsRegistry.SetSuboptimalRate(string(classifier.ScopeNetwork), "target", netRewards.SuboptimalRate(netRewards.SuboptimalTargetCount))
		o.metricsRegistry.SetSuboptimalRate(string(classifier.ScopeNetwork), "head", netRewards.SuboptimalRate(netRewards.SuboptimalHeadCount))
	}

	ourIndices := make([]models.ValidatorIndex, 0, len(ourBalances))
	for idx := range ourBalances {
		ourIndices = append(ourIndices, idx)
	}
	ourRewards, err := probes.Rewards(ctx, o.beaconClient, epoch, ourIndices, ourBalances)
	if err != nil {
		o.logger.WithError(err).Warn("our rewards probe failed")
	} else {
		o.metricsRegistry.SetRewards(string(classifier.ScopeOurs), ourRewards.IdealTotal, ourRewards.ActualTotal)
		o.metricsRegistry.SetSuboptimalRate(string(classifier.ScopeOurs), "source", ourRewards.SuboptimalRate(ourRewards.SuboptimalSourceCount))
		o.metricsRegistry.SetSuboptimalRate(string(classifier.ScopeOurs), "target", ourRewards.SuboptimalRate(ourRewards.SuboptimalTargetCount))
		o.metricsRegistry.SetSuboptimalRate(string(classifier.ScopeOurs), "head", ourRewards.SuboptimalRate(ourRewards.SuboptimalHeadCount))
	}

	e := epoch
	o.lastRewardsEpoch = &e
}

func (o *Orchestrator) futureBlockProposals(ctx context.Context, slot models.Slot, epoch models.Epoch, isNewEpoch bool, ourPubkeys map[string]bool, ourLabels map[string]map[string]string) ([]models.ProposerDuty, error) {
	all := o.schedule.DutiesFrom(slot)
	ours := make([]models.ProposerDuty, 0, len(all))
	for _, d := range all {
		if ourPubkeys[d.Pubkey] {
			ours = append(ours, d)
		}
	}
	currentEpochEnd := o.beaconClk.EpochToSlot(epoch + 1)
	return probes.FutureBlockProposals(ctx, o.relayVerifier, o.logger, slot, isNewEpoch, ours, currentEpochEnd, ourLabels)
}

func (o *Orchestrator) runMissedBlocksFinalized(ctx context.Context, ourPubkeys map[string]bool) {
	results, err := o.finalized.Advance(ctx, o.beaconClient, o.beaconClient, o.schedule, ourPubkeys)
	if err != nil {
		o.logger.WithError(err).Warn("missed blocks finalized probe failed")
		return
	}
	for _, r := range results {
		if !r.Proposed && r.IsOurValidator {
			o.metricsRegistry.IncMissedBlocksFinalized(o.ourLabelsByIndex[r.Duty.ValidatorIndex])
		}
	}
}

func (o *Orchestrator) runSuboptimalAttestations(ctx context.Context, block models.Block, slot models.Slot, epoch models.Epoch) {
	watchedByKey := map[string][]models.ValidatorIndex{}
	labelsByKey := map[string]map[string]string{}
	for idx, labels := range o.ourLabelsByIndex {
		key := metrics.DisplayName(labels)
		watchedByKey[key] = append(watchedByKey[key], idx)
		labelsByKey[key] = labels
	}
	if len(watchedByKey) == 0 {
		return
	}
	results, err := probes.SuboptimalAttestations(ctx, o.beaconClient, slot, epoch, block.Message.Body.Attestations, watchedByKey)
	if err != nil {
		o.logger.WithError(err).Warn("suboptimal attestations probe failed")
		return
	}
	for key, counts := range results {
		o.metricsRegistry.SetBlockAttestationVotes(labelsByKey[key], counts.Included, counts.Missed)
	}
}

func (o *Orchestrator) runFeeRecipient(ctx context.Context, block models.Block) {
	if len(o.cfg.FeeRecipients) == 0 {
		return
	}
	var execClient probes.ExecutionBlockSource
	if o.executionClient != nil {
		execClient = o.executionClient
	}
	compliant, err := probes.FeeRecipientCompliant(ctx, execClient, block, o.cfg.FeeRecipients)
	if err != nil {
		o.logger.WithError(err).Warn("fee recipient probe failed")
		return
	}
	if !compliant {
		o.metricsRegistry.IncFeeRecipientMismatch(o.ourLabelsByIndex[block.Message.ProposerIndex])
		o.logger.Warn("🛑 block proposed with a non-compliant fee recipient")
	}
}

func (o *Orchestrator) runSyncCommitteeReward(ctx context.Context, slot models.Slot) {
	indices := make([]models.ValidatorIndex, 0, len(o.ourLabelsByIndex))
	for idx := range o.ourLabelsByIndex {
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return
	}
	rewards, err := probes.SyncCommitteeRewards(ctx, o.beaconClient, slot, indices)
	if err != nil {
		o.logger.WithError(err).Warn("sync committee reward probe failed")
		return
	}
	for idx, gwei := range rewards {
		labels := o.ourLabelsByIndex[idx]
		o.metricsRegistry.SetSyncCommitteeReward(labels, gwei)
	}
}

func (o *Orchestrator) runMissedBlockHead(ctx context.Context, slot models.Slot, ourPubkeys map[string]bool) bool {
	result, err := probes.MissedBlockHead(ctx, o.beaconClient, o.schedule, slot, ourPubkeys)
	if err != nil {
		o.logger.WithError(err).Warn("missed block head probe failed")
		return false
	}
	if !result.HasDuty || !result.IsOurValidator {
		return result.IsOurValidator
	}
	labels := o.ourLabelsByIndex[result.Duty.ValidatorIndex]
	if result.Proposed {
		o.metricsRegistry.IncProposedBlocks(labels)
	} else {
		o.metricsRegistry.IncMissedBlocks(labels)
		o.logger.WithField("slot", slot).Warn("🚫 watched validator missed a block proposal at head")
	}
	return result.IsOurValidator
}

func (o *Orchestrator) runBlockReward(ctx context.Context, slot models.Slot, proposerIndex models.ValidatorIndex) {
	reward, ok, err := probes.BlockReward(ctx, o.beaconClient, slot)
	if err != nil {
		o.logger.WithError(err).Warn("block reward probe failed")
		return
	}
	if !ok {
		return
	}
	o.metricsRegistry.SetBlockReward(o.ourLabelsByIndex[proposerIndex], reward)
}
