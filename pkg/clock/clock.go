// Package clock computes slot/epoch arithmetic against a beacon chain's
// genesis time and drives the orchestrator's one-slot-at-a-time loop.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// BeaconClock converts wall-clock time to slots/epochs for a given
// genesis. Slots before genesis are negative.
type BeaconClock struct {
	genesisTime    int64
	secondsPerSlot int64
	slotsPerEpoch  int64
	logger         *logrus.Logger
	now            func() time.Time
}

// NewBeaconClock creates a new beacon clock.
func NewBeaconClock(genesis *models.Genesis, spec *models.Spec, logger *logrus.Logger) *BeaconClock {
	return &BeaconClock{
		genesisTime:    genesis.GenesisTime,
		secondsPerSlot: spec.SecondsPerSlot,
		slotsPerEpoch:  spec.SlotsPerEpoch,
		logger:         logger,
		now:            time.Now,
	}
}

// SetNowFunc overrides the wall-clock source; used by tests.
func (c *BeaconClock) SetNowFunc(now func() time.Time) {
	c.now = now
}

// floorDiv is integer division that floors toward negative infinity,
// unlike Go's native truncating "/" operator. Needed because pre-genesis
// elapsed seconds are negative and slot 0 must start exactly at genesis.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// CurrentSlot returns the slot number for the current wall-clock time.
// Pre-genesis this is negative.
func (c *BeaconClock) CurrentSlot() models.Slot {
	return c.SlotAt(c.now())
}

// SlotAt returns the slot number active at the given instant.
func (c *BeaconClock) SlotAt(t time.Time) models.Slot {
	elapsed := t.Unix() - c.genesisTime
	return models.Slot(floorDiv(elapsed, c.secondsPerSlot))
}

// SlotToEpoch converts a slot to an epoch, flooring toward negative
// infinity so pre-genesis slots map to negative epochs consistently.
func (c *BeaconClock) SlotToEpoch(slot models.Slot) models.Epoch {
	return models.Epoch(floorDiv(int64(slot), c.slotsPerEpoch))
}

// EpochToSlot converts an epoch to its first slot.
func (c *BeaconClock) EpochToSlot(epoch models.Epoch) models.Slot {
	return models.Slot(int64(epoch) * c.slotsPerEpoch)
}

// CurrentEpoch returns the current epoch number.
func (c *BeaconClock) CurrentEpoch() models.Epoch {
	return c.SlotToEpoch(c.CurrentSlot())
}

// SlotStartTime returns the start time of a slot.
func (c *BeaconClock) SlotStartTime(slot models.Slot) time.Time {
	return time.Unix(c.genesisTime+int64(slot)*c.secondsPerSlot, 0)
}

// IsFirstSlotOfEpoch returns true if the slot is the first slot of an epoch.
func (c *BeaconClock) IsFirstSlotOfEpoch(slot models.Slot) bool {
	return floorMod(int64(slot), c.slotsPerEpoch) == 0
}

// IsSlotInEpoch returns true if the slot is at the given position within its epoch.
func (c *BeaconClock) IsSlotInEpoch(slot models.Slot, position int64) bool {
	return floorMod(int64(slot), c.slotsPerEpoch) == position
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// SlotsPerEpoch returns the number of slots per epoch.
func (c *BeaconClock) SlotsPerEpoch() int64 { return c.slotsPerEpoch }

// SecondsPerSlot returns the number of seconds per slot.
func (c *BeaconClock) SecondsPerSlot() int64 { return c.secondsPerSlot }

// GenesisTime returns the genesis timestamp.
func (c *BeaconClock) GenesisTime() int64 { return c.genesisTime }

// Iterator yields one slot at a time, sleeping until the wall clock
// reaches each slot's start. It never skips a slot: if the caller falls
// behind, the next call returns immediately for the slot(s) already due.
// If the host clock jumps backward, it idles (re-checking in small
// increments) until monotonic progress resumes instead of re-emitting an
// earlier slot.
type Iterator struct {
	clock    *BeaconClock
	nextSlot *models.Slot
}

// NewIterator creates a slot iterator seeded at the clock's current slot.
func NewIterator(c *BeaconClock) *Iterator {
	return &Iterator{clock: c}
}

// Next blocks until the next slot's start time and returns it along with
// its start time. The first call returns the slot active right now.
func (it *Iterator) Next(ctx context.Context) (models.Slot, time.Time, error) {
	if it.nextSlot == nil {
		s := it.clock.CurrentSlot()
		it.nextSlot = &s
	}

	slot := *it.nextSlot
	start := it.clock.SlotStartTime(slot)

	for {
		now := it.clock.now()
		if !now.Before(start) {
			break
		}
		wait := start.Sub(now)
		if wait > time.Duration(it.clock.secondsPerSlot)*time.Second {
			wait = time.Duration(it.clock.secondsPerSlot) * time.Second
		}
		select {
		case <-ctx.Done():
			return 0, time.Time{}, ctx.Err()
		case <-time.After(wait):
		}
	}

	next := slot + 1
	it.nextSlot = &next
	return slot, start, nil
}

// ConvertSecondsToDHMS formats a duration in seconds as a human-readable
// "Xd Xh Xm Xs" countdown string, used for the pre-genesis banner.
func ConvertSecondsToDHMS(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	days := totalSeconds / 86400
	totalSeconds %= 86400
	hours := totalSeconds / 3600
	totalSeconds %= 3600
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
