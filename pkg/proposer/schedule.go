package proposer

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/beacon"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// Schedule caches proposer duties per slot for every epoch passed to
// Update until Cleanup drops them. The orchestrator keeps the two
// previous epochs, the current one and the next one (up to four epochs),
// for head-miss and finalized-miss detection, the future-block proposal
// probe, and the relay registration check.
type Schedule struct {
	mu     sync.RWMutex
	duties map[models.Slot]models.ProposerDuty
	client *beacon.Client
	logger *logrus.Logger
}

// NewSchedule creates a new proposer schedule
func NewSchedule(client *beacon.Client, logger *logrus.Logger) *Schedule {
	return &Schedule{
		duties: make(map[models.Slot]models.ProposerDuty),
		client: client,
		logger: logger,
	}
}

// Update fetches and updates the proposer schedule for an epoch
func (s *Schedule) Update(ctx context.Context, epoch models.Epoch) error {
	duties, err := s.client.GetProposerDuties(ctx, epoch)
	if err != nil {
		return fmt.Errorf("failed to fetch proposer duties for epoch %d: %w", epoch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, duty := range duties {
		s.duties[duty.Slot] = duty
	}

	s.logger.Debugf("Updated proposer schedule for epoch %d: %d duties", epoch, len(duties))
	return nil
}

// GetDuty returns the proposer duty scheduled for a slot.
func (s *Schedule) GetDuty(slot models.Slot) (models.ProposerDuty, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	duty, ok := s.duties[slot]
	return duty, ok
}

// DutiesFrom returns every cached duty at or after fromSlot, sorted by slot.
func (s *Schedule) DutiesFrom(fromSlot models.Slot) []models.ProposerDuty {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProposerDuty, 0)
	for slot, duty := range s.duties {
		if slot >= fromSlot {
			out = append(out, duty)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Slot > out[j].Slot; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Cleanup removes cached duties before the specified slot; how much stays
// cached depends on the slot the caller passes.
func (s *Schedule) Cleanup(beforeSlot models.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for slot := range s.duties {
		if slot < beforeSlot {
			delete(s.duties, slot)
		}
	}
}

// Count returns the number of scheduled duties
func (s *Schedule) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.duties)
}
