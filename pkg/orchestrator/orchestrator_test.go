package orchestrator

import (
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestCountdownSplitsSecondsIntoUnits(t *testing.T) {
	// 2 days, 3 hours, 4 minutes, 5 seconds before genesis, at 12s/slot.
	totalSeconds := int64(2*86400 + 3*3600 + 4*60 + 5)
	slot := models.Slot(-totalSeconds / 12)

	days, hours, minutes, seconds := countdown(slot, 12)

	wantTotal := -int64(slot) * 12
	gotTotal := days*86400 + hours*3600 + minutes*60 + seconds
	if gotTotal != wantTotal {
		t.Errorf("countdown components don't reconstruct total: got %d want %d", gotTotal, wantTotal)
	}
	if days != 2 {
		t.Errorf("expected 2 days, got %d", days)
	}
}

func TestCountdownAtGenesisIsZero(t *testing.T) {
	days, hours, minutes, seconds := countdown(0, 12)
	if days != 0 || hours != 0 || minutes != 0 || seconds != 0 {
		t.Errorf("expected all-zero countdown at slot 0, got %d %d %d %d", days, hours, minutes, seconds)
	}
}

func TestJokeForSlotWrapsAround(t *testing.T) {
	seen := map[string]bool{}
	for slot := models.Slot(0); slot > models.Slot(-int64(len(chuckNorrisJokes))); slot-- {
		joke, ok := jokeForSlot(slot)
		if !ok {
			t.Fatalf("expected a joke for slot %d", slot)
		}
		if joke == "" {
			t.Errorf("expected non-empty joke for slot %d", slot)
		}
		seen[joke] = true
	}
	if len(seen) != len(chuckNorrisJokes) {
		t.Errorf("expected to cycle through all %d jokes, saw %d distinct ones", len(chuckNorrisJokes), len(seen))
	}
}

func TestNewWiresAllComponentsWithoutNetworkAccess(t *testing.T) {
	cfg := &models.Config{
		BeaconURL:   "http://beacon.invalid",
		MetricsPort: 8000,
	}

	o := New(cfg, testLogger())

	if o.beaconClient == nil {
		t.Error("expected a beacon client")
	}
	if o.executionClient != nil {
		t.Error("expected no execution client when ExecutionURL is unset")
	}
	if o.relayVerifier == nil {
		t.Error("expected a relay verifier")
	}
	if o.exitedTracker == nil || o.slashedTracker == nil {
		t.Error("expected notify trackers to be initialized")
	}
	if o.heartbeat == nil {
		t.Error("expected a heartbeat even with no liveness file configured")
	}
}

func TestNewCreatesExecutionClientOnlyWhenConfigured(t *testing.T) {
	cfg := &models.Config{
		BeaconURL:    "http://beacon.invalid",
		ExecutionURL: "http://execution.invalid",
	}

	o := New(cfg, testLogger())

	if o.executionClient == nil {
		t.Error("expected an execution client when ExecutionURL is set")
	}
}
