package probes

import (
	"context"
	"testing"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type fakeRelayChecker struct {
	unregistered []models.ProposerDuty
	gotSlots     []models.ProposerDuty
}

func (f *fakeRelayChecker) CheckValidatorRegistrationForSlots(ctx context.Context, slotProposals []models.ProposerDuty, ourLabels map[string]map[string]string) ([]models.ProposerDuty, error) {
	f.gotSlots = slotProposals
	return f.unregistered, nil
}

func TestFutureBlockProposalsSkipsRelayCheckWithoutLabels(t *testing.T) {
	checker := &fakeRelayChecker{}
	duties := []models.ProposerDuty{{Slot: 100, Pubkey: "0xabc"}}

	got, err := FutureBlockProposals(context.Background(), checker, testLogger(), 90, true, duties, 128, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected duties passed through, got %+v", got)
	}
	if checker.gotSlots != nil {
		t.Error("expected relay check to be skipped when no labels are configured")
	}
}

func TestFutureBlockProposalsChecksRegistrationOnNewEpochOnly(t *testing.T) {
	checker := &fakeRelayChecker{unregistered: []models.ProposerDuty{{Slot: 100, Pubkey: "0xabc"}}}
	duties := []models.ProposerDuty{{Slot: 100, Pubkey: "0xabc"}, {Slot: 200, Pubkey: "0xdef"}}
	labels := map[string]map[string]string{"0xabc": {"pool": "solo"}}

	_, err := FutureBlockProposals(context.Background(), checker, testLogger(), 90, false, duties, 128, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checker.gotSlots != nil {
		t.Error("expected relay check to be skipped off the new-epoch boundary")
	}

	_, err = FutureBlockProposals(context.Background(), checker, testLogger(), 90, true, duties, 128, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(checker.gotSlots) != 1 || checker.gotSlots[0].Slot != 100 {
		t.Errorf("expected only the current-epoch duty (slot 100) checked, got %+v", checker.gotSlots)
	}
}

func TestShortPubkey(t *testing.T) {
	if got := shortPubkey("0xabc"); got != "0xabc" {
		t.Errorf("expected short pubkey returned as-is, got %q", got)
	}
	if got := shortPubkey("0x1234567890abcdef"); got != "0x12345678" {
		t.Errorf("expected truncation to 10 chars, got %q", got)
	}
}
