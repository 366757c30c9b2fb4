// Package classifier buckets the full validator set by lifecycle status
// and splits it into network-wide ("net") and watched ("our") scopes,
// the input every probe and metric in this watcher keys off of.
package classifier

import (
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/watchedset"
)

// Scope distinguishes network-wide metrics from the operator's own
// validator set.
type Scope string

const (
	ScopeNetwork Scope = "net"
	ScopeOurs    Scope = "our"
)

// Result is the classification of a validator set snapshot.
type Result struct {
	// ByStatus maps scope -> status -> validator indices, the input to
	// pkg/metrics' per-status gauges.
	ByStatus map[Scope]map[models.ValidatorStatus][]models.ValidatorIndex

	// Active, PendingQueued, Withdrawable, ExitedSlashed group several
	// raw statuses into the coarser buckets other probes reason about.
	Active        map[Scope][]models.ValidatorIndex
	PendingQueued map[Scope][]models.ValidatorIndex
	Withdrawable  map[Scope][]models.ValidatorIndex
	ExitedSlashed map[Scope][]models.ValidatorIndex

	// OurIndices and OurValidators give probes direct access to the
	// watched subset without re-scanning the full set.
	OurIndices    []models.ValidatorIndex
	OurValidators map[models.ValidatorIndex]models.Validator
	OurLabels     map[models.ValidatorIndex]map[string]string
}

func isActive(status models.ValidatorStatus) bool {
	return status == models.StatusActiveOngoing || status == models.StatusActiveExiting || status == models.StatusActiveSlashed
}

func isPendingQueued(status models.ValidatorStatus) bool {
	return status == models.StatusPendingQueued
}

func isWithdrawable(status models.ValidatorStatus) bool {
	return status == models.StatusWithdrawalPossible || status == models.StatusWithdrawalDone
}

func isExitedSlashed(status models.ValidatorStatus) bool {
	return status == models.StatusExitedSlashed
}

// Classify buckets all validators into net/our scopes and coarse
// lifecycle groups. watched may be nil, in which case every "our"
// bucket is empty.
func Classify(all []models.Validator, watched *watchedset.WatchedSet) Result {
	r := Result{
		ByStatus:      map[Scope]map[models.ValidatorStatus][]models.ValidatorIndex{ScopeNetwork: {}, ScopeOurs: {}},
		Active:        map[Scope][]models.ValidatorIndex{},
		PendingQueued: map[Scope][]models.ValidatorIndex{},
		Withdrawable:  map[Scope][]models.ValidatorIndex{},
		ExitedSlashed: map[Scope][]models.ValidatorIndex{},
		OurValidators: map[models.ValidatorIndex]models.Validator{},
		OurLabels:     map[models.ValidatorIndex]map[string]string{},
	}

	var watchedPubkeys map[string]struct{}
	var labels map[string]map[string]string
	if watched != nil {
		watchedPubkeys = watched.Pubkeys
		labels = watched.Labels
	}

	for _, v := range all {
		r.ByStatus[ScopeNetwork][v.Status] = append(r.ByStatus[ScopeNetwork][v.Status], v.Index)
		classifyBucket(&r, ScopeNetwork, v)

		if watchedPubkeys == nil {
			continue
		}
		if _, ok := watchedPubkeys[v.Data.Pubkey]; !ok {
			continue
		}

		r.ByStatus[ScopeOurs][v.Status] = append(r.ByStatus[ScopeOurs][v.Status], v.Index)
		classifyBucket(&r, ScopeOurs, v)
		r.OurIndices = append(r.OurIndices, v.Index)
		r.OurValidators[v.Index] = v
		if l, ok := labels[v.Data.Pubkey]; ok {
			r.OurLabels[v.Index] = l
		}
	}

	return r
}

func classifyBucket(r *Result, scope Scope, v models.Validator) {
	switch {
	case isActive(v.Status):
		r.Active[scope] = append(r.Active[scope], v.Index)
	case isPendingQueued(v.Status):
		r.PendingQueued[scope] = append(r.PendingQueued[scope], v.Index)
	case isWithdrawable(v.Status):
		r.Withdrawable[scope] = append(r.Withdrawable[scope], v.Index)
	case isExitedSlashed(v.Status):
		r.ExitedSlashed[scope] = append(r.ExitedSlashed[scope], v.Index)
	}
}
