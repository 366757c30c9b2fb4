// Package notify detects newly-exited and newly-slashed watched
// validators across epoch boundaries and announces each transition
// exactly once, to the console and, if configured, to Slack.
package notify

import (
	"fmt"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

// ChatSender is the subset of slack.Sender this package needs.
type ChatSender interface {
	Send(text string)
}

// ExitedValidators tracks which watched validators have already been
// announced as exited-unslashed or withdrawable, so a transition is
// reported only on the epoch it first appears.
type ExitedValidators struct {
	logger       *logrus.Logger
	chat         ChatSender
	seenExited   map[models.ValidatorIndex]bool
	seenWithdraw map[models.ValidatorIndex]bool
}

// NewExitedValidators creates a tracker. chat may be nil, in which case
// only console logging happens.
func NewExitedValidators(logger *logrus.Logger, chat ChatSender) *ExitedValidators {
	return &ExitedValidators{
		logger:       logger,
		chat:         chat,
		seenExited:   map[models.ValidatorIndex]bool{},
		seenWithdraw: map[models.ValidatorIndex]bool{},
	}
}

// Process reports every newly-observed exited-unslashed or withdrawable
// watched validator. Both maps are keyed by validator index.
func (e *ExitedValidators) Process(exitedUnslashed, withdrawable map[models.ValidatorIndex]models.Validator) {
	for idx, v := range exitedUnslashed {
		if e.seenExited[idx] {
			continue
		}
		e.seenExited[idx] = true
		msg := fmt.Sprintf("🚪 validator %d (%s) exited", idx, v.Data.Pubkey)
		e.logger.Info(msg)
		if e.chat != nil {
			e.chat.Send(msg)
		}
	}

	for idx, v := range withdrawable {
		if e.seenWithdraw[idx] {
			continue
		}
		e.seenWithdraw[idx] = true
		msg := fmt.Sprintf("💰 validator %d (%s) is withdrawable", idx, v.Data.Pubkey)
		e.logger.Info(msg)
		if e.chat != nil {
			e.chat.Send(msg)
		}
	}
}

// SlashedValidators tracks which validators have already been announced
// as slashed, split into validators this watcher owns and everyone
// else's. Only our own slashings are sent to chat; other slashings are
// still logged to the console, matching an operator's interest in
// network health without spamming chat for every third-party slashing.
type SlashedValidators struct {
	logger *logrus.Logger
	chat   ChatSender
	seen   map[models.ValidatorIndex]bool
}

// NewSlashedValidators creates a tracker. chat may be nil, in which
// case only console logging happens.
func NewSlashedValidators(logger *logrus.Logger, chat ChatSender) *SlashedValidators {
	return &SlashedValidators{
		logger: logger,
		chat:   chat,
		seen:   map[models.ValidatorIndex]bool{},
	}
}

// Process reports every newly-observed slashed validator across the
// network, distinguishing ours from everyone else's. netSlashed is the
// network-wide slashed set (exited_slashed ∪ active_slashed); ourIndices
// marks which of those indices belong to the watched set.
func (s *SlashedValidators) Process(netSlashed map[models.ValidatorIndex]models.Validator, ourIndices map[models.ValidatorIndex]bool) {
	for idx, v := range netSlashed {
		if s.seen[idx] {
			continue
		}
		s.seen[idx] = true

		isOurs := ourIndices[idx]
		msg := fmt.Sprintf("🔪 validator %d (%s) slashed", idx, v.Data.Pubkey)
		if isOurs {
			s.logger.Warn(msg)
			if s.chat != nil {
				s.chat.Send(msg)
			}
		} else {
			s.logger.Info(msg)
		}
	}
}
