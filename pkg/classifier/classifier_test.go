package classifier

import (
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/watchedset"
)

func validator(idx models.ValidatorIndex, pubkey string, status models.ValidatorStatus) models.Validator {
	v := models.Validator{Index: idx, Status: status}
	v.Data.Pubkey = pubkey
	return v
}

func TestClassifySplitsNetAndOurScopes(t *testing.T) {
	all := []models.Validator{
		validator(1, "0xa", models.StatusActiveOngoing),
		validator(2, "0xb", models.StatusExitedSlashed),
		validator(3, "0xc", models.StatusPendingQueued),
	}
	watched := &watchedset.WatchedSet{
		Pubkeys: map[string]struct{}{"0xa": {}, "0xb": {}},
		Labels:  map[string]map[string]string{"0xa": {"pool": "solo"}},
	}

	r := Classify(all, watched)

	if len(r.ByStatus[ScopeNetwork][models.StatusActiveOngoing]) != 1 {
		t.Error("expected one active-ongoing validator network-wide")
	}
	if len(r.OurIndices) != 2 {
		t.Fatalf("expected 2 watched validators, got %d", len(r.OurIndices))
	}
	if len(r.Active[ScopeOurs]) != 1 || r.Active[ScopeOurs][0] != 1 {
		t.Error("expected validator 1 to be our only active validator")
	}
	if len(r.ExitedSlashed[ScopeOurs]) != 1 || r.ExitedSlashed[ScopeOurs][0] != 2 {
		t.Error("expected validator 2 to be our exited-slashed validator")
	}
	if r.OurLabels[1]["pool"] != "solo" {
		t.Errorf("expected label pool=solo for validator 1, got %v", r.OurLabels[1])
	}
	if _, ok := r.OurLabels[2]; ok {
		t.Error("expected validator 2 to have no labels")
	}
}

func TestClassifyWithNilWatchedSet(t *testing.T) {
	all := []models.Validator{validator(1, "0xa", models.StatusActiveOngoing)}
	r := Classify(all, nil)

	if len(r.OurIndices) != 0 {
		t.Error("expected no watched validators with a nil watched set")
	}
	if len(r.Active[ScopeNetwork]) != 1 {
		t.Error("expected network-wide classification to still work")
	}
}
