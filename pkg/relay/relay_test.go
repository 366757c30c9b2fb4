package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/metrics"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// badRelayCount reads the bad-relay counter straight off the registry's
// gathered metric families, since the counter itself is unexported.
func badRelayCount(reg *metrics.Registry) float64 {
	families, err := reg.Registerer().Gather()
	if err != nil {
		return -1
	}
	for _, fam := range families {
		if fam.GetName() != "eth_validator_watcher_bad_relay_count" {
			continue
		}
		if len(fam.GetMetric()) == 0 {
			return 0
		}
		return fam.GetMetric()[0].GetCounter().GetValue()
	}
	return 0
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestDisplayNameKnownRelay(t *testing.T) {
	name := DisplayName("https://0xac6e77dfe25ecd6110b8e780608cce0dab71fdd5ebea22a16c0205200f2f8e2e3ad3b71d3499c54ad14d6c21b41a37ae@boost-relay.flashbots.net")
	if name != "flashbots" {
		t.Errorf("expected flashbots, got %q", name)
	}
}

func TestDisplayNameUnknownRelayFallsBackToHost(t *testing.T) {
	name := DisplayName("https://example.com")
	if name != "example.com" {
		t.Errorf("expected example.com, got %q", name)
	}
}

func TestProcessIncrementsBadRelayCountWhenNoRelayKnowsTheBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	reg := metrics.New(testLogger())
	v := NewVerifier([]string{srv.URL}, testLogger(), reg)

	v.Process(context.Background(), 100, map[string]map[string]string{})

	if got := badRelayCount(reg); got != 1 {
		t.Errorf("expected bad relay count 1, got %v", got)
	}
}

func TestProcessCreditsDeliveringRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.RelayPayload{
			{Slot: 100, ValueWei: "1000000000", ProposerPubkey: "0xabc"},
		})
	}))
	defer srv.Close()

	reg := metrics.New(testLogger())
	reg.EnsureSchema([]string{"pool"})
	v := NewVerifier([]string{srv.URL}, testLogger(), reg)

	v.Process(context.Background(), 100, map[string]map[string]string{"0xabc": {"pool": "solo"}})
}

func TestCheckValidatorRegistrationForSlotsReturnsUnregistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.RelayBuilderValidator{
			{Slot: 100, ValidatorIndex: 1, Entry: models.RelayBuilderValidatorEntry{Message: struct {
				Pubkey string `json:"pubkey"`
			}{Pubkey: "0xabc"}}},
		})
	}))
	defer srv.Close()

	v := NewVerifier([]string{srv.URL}, testLogger(), metrics.New(testLogger()))

	duties := []models.ProposerDuty{
		{Slot: 100, Pubkey: "0xabc"},
		{Slot: 101, Pubkey: "0xdef"},
	}

	unregistered, err := v.CheckValidatorRegistrationForSlots(context.Background(), duties, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unregistered) != 1 || unregistered[0].Slot != 101 {
		t.Errorf("expected slot 101 unregistered, got %+v", unregistered)
	}
}

func TestCheckValidatorRegistrationForSlotsEmptyInput(t *testing.T) {
	v := NewVerifier(nil, testLogger(), metrics.New(testLogger()))

	unregistered, err := v.CheckValidatorRegistrationForSlots(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unregistered != nil {
		t.Errorf("expected nil result for empty input, got %+v", unregistered)
	}
}

