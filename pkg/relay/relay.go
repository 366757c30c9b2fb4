// Package relay verifies that a proposed block actually reached the
// configured MEV-Boost relays, and that our validators are registered
// with at least one configured relay ahead of their upcoming proposals.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/metrics"
	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	maxNotFoundRetries = 3
	notFoundBackoff    = 500 * time.Millisecond

	maxConnectionTrials = 5
	connectionWait      = 500 * time.Millisecond
)

// displayNames maps a relay's published base URL (pubkey embedded in the
// userinfo component) to the short name this watcher logs and labels
// metrics with. A relay not in this table falls back to its hostname.
var displayNames = map[string]string{
	"https://0xa1559ace749633b997cb3fdacffb890aeebdb0f5a3b6aaa7eeeaf1a38af0a8fe88b9e4b1f61f236d2e64d95733327a62@relay.ultrasound.money":             "ultra sound",
	"https://0x8b5d2e73e2a3a55c6c87b8b6eb92e0149a125c852751db1422fa951e42a09b82c142c3ea98d0d9930b056a3bc9896b8f@bloxroute.max-profit.blxrbdn.com":   "BloXroute [Max-Profit]",
	"https://0xac6e77dfe25ecd6110b8e780608cce0dab71fdd5ebea22a16c0205200f2f8e2e3ad3b71d3499c54ad14d6c21b41a37ae@boost-relay.flashbots.net":          "flashbots",
	"https://0xa7ab7a996c8584251c8f925da3170bdfd6ebc75d50f5ddc4050a6fdc77f2a3b5fce2cc750d0865e05d7228af97d69561@agnostic-relay.net":                 "Agnostic Gnosis",
	"https://0xb0b07cd0abef743db4260b0ed50619cf6ad4d82064cb4fbec9d3ec530f7c5e6793d9f286c4e082c0244ffb9f2658fe88@bloxroute.regulated.blxrbdn.com":    "BloXroute [Regulated]",
	"https://0xa15b52576bcbf1072f4a011c0f99f9fb6c66f3e1ff321f11f461d15e31b1cb359caa092c71bbded0bae5b5ea401aab7e@aestus.live":                        "Aestus",
}

// errRetryExhausted marks a relay that kept returning 404 past our retry
// budget: distinct from a genuine "no bid for this slot" 404, and from a
// hard remote error, since the caller needs to skip just this relay
// rather than abort the whole probe.
var errRetryExhausted = errors.New("relay retry budget exhausted")

// DisplayName returns the short name this watcher uses for a relay URL,
// falling back to its hostname when the URL isn't in the known mapping.
func DisplayName(relayURL string) string {
	if name, ok := displayNames[relayURL]; ok {
		return name
	}
	if u, err := url.Parse(relayURL); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return relayURL
}

// Verifier checks delivered-bid and builder-registration data against a
// configured set of MEV relays.
type Verifier struct {
	urls       []string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Registry
}

// NewVerifier creates a relay Verifier for the given relay base URLs.
func NewVerifier(urls []string, logger *logrus.Logger, reg *metrics.Registry) *Verifier {
	return &Verifier{
		urls:       urls,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		metrics:    reg,
	}
}

// Process checks whether a just-proposed block is known to any
// configured relay, and increments the delivery count for the relay
// that delivered it. The delivered bid value is not recorded.
func (v *Verifier) Process(ctx context.Context, slot models.Slot, ourLabels map[string]map[string]string) {
	if len(v.urls) == 0 {
		return
	}

	knownBuilder := false
	for _, relayURL := range v.urls {
		payload, err := v.proposerPayloadDelivered(ctx, relayURL, slot)
		if err != nil {
			if errors.Is(err, errRetryExhausted) {
				v.logger.WithField("relay", relayURL).Warn("⚠️ Cannot contact relay")
				continue
			}
			v.logger.WithError(err).WithField("relay", relayURL).Warn("failed to query relay for delivered payload")
			continue
		}
		if payload == nil {
			continue
		}

		knownBuilder = true
		if labels, ok := ourLabels[payload.ProposerPubkey]; ok {
			valueWei, parseErr := strconv.ParseFloat(payload.ValueWei, 64)
			if parseErr != nil {
				v.logger.WithError(parseErr).WithField("relay", relayURL).Warn("failed to parse relay bid value")
				continue
			}
			v.metrics.IncMEVRelayDeliveries(labels, DisplayName(relayURL))
			_ = valueWei // reward amount itself is not metered beyond the delivery count per label
		}
	}

	if !knownBuilder {
		v.metrics.IncBadRelayCount()
		v.logger.Info("🟧 Block proposed with unknown builder (may be a locally built block)")
	}
}

// CheckValidatorRegistrationForSlots cross-references our upcoming
// proposer duties against every relay's registered-builder-validator
// listing, returning the duties that aren't registered with any relay.
func (v *Verifier) CheckValidatorRegistrationForSlots(ctx context.Context, slotProposals []models.ProposerDuty, ourLabels map[string]map[string]string) ([]models.ProposerDuty, error) {
	if len(slotProposals) == 0 {
		return nil, nil
	}

	registered := make(map[models.Slot]bool, len(slotProposals))
	pubkeys := make(map[models.Slot]string, len(slotProposals))
	for _, duty := range slotProposals {
		registered[duty.Slot] = false
		pubkeys[duty.Slot] = duty.Pubkey
	}

	for _, relayURL := range v.urls {
		entries, err := v.builderValidators(ctx, relayURL)
		if err != nil {
			if errors.Is(err, errRetryExhausted) {
				v.logger.WithField("relay", relayURL).Warn("⚠️ Cannot contact relay")
				continue
			}
			v.logger.WithError(err).WithField("relay", relayURL).Warn("failed to query relay for registered validators")
			continue
		}

		for _, entry := range entries {
			if want, ok := pubkeys[entry.Slot]; ok && entry.Entry.Message.Pubkey == want {
				registered[entry.Slot] = true
			}
		}
	}

	unregistered := make([]models.ProposerDuty, 0)
	for _, duty := range slotProposals {
		if !registered[duty.Slot] {
			unregistered = append(unregistered, duty)
		}
	}
	return unregistered, nil
}

// proposerPayloadDelivered fetches the delivered bid-trace record for a
// slot from one relay, returning nil if the relay has none.
func (v *Verifier) proposerPayloadDelivered(ctx context.Context, relayURL string, slot models.Slot) (*models.RelayPayload, error) {
	path := fmt.Sprintf("%s/relay/v1/data/bidtraces/proposer_payload_delivered?slot=%d", strings.TrimSuffix(relayURL, "/"), slot)

	var payloads []models.RelayPayload
	if err := v.getJSON(ctx, path, &payloads); err != nil {
		return nil, err
	}
	if len(payloads) > 1 {
		return nil, fmt.Errorf("relay %s returned more than one block for slot %d", relayURL, slot)
	}
	if len(payloads) == 0 {
		return nil, nil
	}
	return &payloads[0], nil
}

// builderValidators fetches a relay's full registered-builder-validator
// listing.
func (v *Verifier) builderValidators(ctx context.Context, relayURL string) ([]models.RelayBuilderValidator, error) {
	path := strings.TrimSuffix(relayURL, "/") + "/relay/v1/builder/validators"

	var entries []models.RelayBuilderValidator
	if err := v.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// getJSON performs a GET with the relay retry discipline: connection
// failures retry up to maxConnectionTrials with a fixed wait, and a 404
// response retries up to maxNotFoundRetries with exponential backoff
// before being treated as errRetryExhausted.
func (v *Verifier) getJSON(ctx context.Context, path string, result interface{}) error {
	for trial := 0; ; trial++ {
		body, status, err := v.get(ctx, path)
		if err != nil {
			if trial >= maxConnectionTrials {
				return fmt.Errorf("connecting to relay: %w", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(connectionWait):
			}
			continue
		}

		if status == http.StatusNotFound {
			for notFoundTrial := 0; notFoundTrial < maxNotFoundRetries; notFoundTrial++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(notFoundBackoff * time.Duration(1<<notFoundTrial)):
				}
				body, status, err = v.get(ctx, path)
				if err != nil {
					return fmt.Errorf("connecting to relay: %w", err)
				}
				if status != http.StatusNotFound {
					break
				}
			}
			if status == http.StatusNotFound {
				return errRetryExhausted
			}
		}

		if status >= 400 {
			return fmt.Errorf("relay request to %s failed with status %d", path, status)
		}

		if len(body) == 0 {
			return nil
		}
		return json.Unmarshal(body, result)
	}
}

func (v *Verifier) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
