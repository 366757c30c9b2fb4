package proposer

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

func newScheduleWithDuties(duties map[models.Slot]models.ProposerDuty) *Schedule {
	s := NewSchedule(nil, testLogger())
	s.duties = duties
	return s
}

func TestGetDuty(t *testing.T) {
	s := newScheduleWithDuties(map[models.Slot]models.ProposerDuty{
		100: {Pubkey: "0xa", ValidatorIndex: 1, Slot: 100},
	})

	duty, ok := s.GetDuty(100)
	if !ok || duty.Pubkey != "0xa" {
		t.Fatalf("expected duty for slot 100, got %+v, ok=%v", duty, ok)
	}

	if _, ok := s.GetDuty(101); ok {
		t.Error("expected no duty for slot 101")
	}
}

func TestDutiesFromReturnsSortedAndFiltered(t *testing.T) {
	s := newScheduleWithDuties(map[models.Slot]models.ProposerDuty{
		105: {Slot: 105, Pubkey: "0xc"},
		100: {Slot: 100, Pubkey: "0xa"},
		102: {Slot: 102, Pubkey: "0xb"},
	})

	got := s.DutiesFrom(101)
	if len(got) != 2 {
		t.Fatalf("expected 2 duties from slot 101, got %d", len(got))
	}
	if got[0].Slot != 102 || got[1].Slot != 105 {
		t.Errorf("expected duties sorted [102 105], got [%d %d]", got[0].Slot, got[1].Slot)
	}
}

func TestCleanupRemovesOldDuties(t *testing.T) {
	s := newScheduleWithDuties(map[models.Slot]models.ProposerDuty{
		100: {Slot: 100},
		200: {Slot: 200},
	})

	s.Cleanup(200)

	if _, ok := s.GetDuty(100); ok {
		t.Error("expected slot 100 duty to be cleaned up")
	}
	if _, ok := s.GetDuty(200); !ok {
		t.Error("expected slot 200 duty to survive cleanup")
	}
}
