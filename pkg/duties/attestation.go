// Package duties holds the pure attestation/reward/liveness decoding
// functions shared by several probes, so bitvector and ideal-reward
// classification logic lives in one place instead of being duplicated
// per probe.
package duties

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// DecodeBitVector decodes an SSZ bitvector into the set of positions
// that are set, LSB-first within each byte.
func DecodeBitVector(bitVectorHex string, size int) (map[int]bool, error) {
	bitVectorHex = strings.TrimPrefix(bitVectorHex, "0x")

	raw, err := hex.DecodeString(bitVectorHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex: %w", err)
	}

	result := make(map[int]bool)
	for i, b := range raw {
		for j := 0; j < 8; j++ {
			pos := i*8 + j
			if pos >= size {
				break
			}
			if b&(1<<j) != 0 {
				result[pos] = true
			}
		}
	}
	return result, nil
}

// ProcessAttestations reports which validator indices are credited with
// attesting in a slot's included attestations. Post-Electra attestations
// can span multiple committees via committee_bits; a missing or empty
// committee_bits field falls back to the pre-Electra single-committee
// shape.
func ProcessAttestations(attestations []models.Attestation, committees []models.Committee) (map[models.ValidatorIndex]bool, error) {
	attested := make(map[models.ValidatorIndex]bool)

	committeeByIndex := make(map[uint64]models.Committee, len(committees))
	for _, c := range committees {
		committeeByIndex[c.Index] = c
	}

	for _, att := range attestations {
		if att.CommitteeBits == "" || att.CommitteeBits == "0x" {
			if err := markSingleCommittee(att, committeeByIndex, attested); err != nil {
				return nil, err
			}
			continue
		}
		if err := markMultiCommittee(att, committeeByIndex, attested); err != nil {
			return nil, err
		}
	}
	return attested, nil
}

func markSingleCommittee(att models.Attestation, committeeByIndex map[uint64]models.Committee, attested map[models.ValidatorIndex]bool) error {
	committee, ok := committeeByIndex[att.Data.Index]
	if !ok {
		return nil
	}
	bits, err := DecodeBitVector(att.AggregationBits, len(committee.Validators))
	if err != nil {
		return fmt.Errorf("failed to decode aggregation bits: %w", err)
	}
	for pos, set := range bits {
		if set && pos < len(committee.Validators) {
			markValidator(committee.Validators[pos], attested)
		}
	}
	return nil
}

// markMultiCommittee decodes a 64-bit committee_bits field to find the
// committees an attestation aggregates over, then walks aggregation_bits
// across their concatenated validator lists in committee order.
func markMultiCommittee(att models.Attestation, committeeByIndex map[uint64]models.Committee, attested map[models.ValidatorIndex]bool) error {
	committeeBits, err := DecodeBitVector(att.CommitteeBits, 64)
	if err != nil {
		return fmt.Errorf("failed to decode committee bits: %w", err)
	}

	var active []models.Committee
	total := 0
	for i := 0; i < 64; i++ {
		if !committeeBits[i] {
			continue
		}
		committee, ok := committeeByIndex[uint64(i)]
		if !ok {
			continue
		}
		active = append(active, committee)
		total += len(committee.Validators)
	}
	if len(active) == 0 {
		return nil
	}

	aggregationBits, err := DecodeBitVector(att.AggregationBits, total)
	if err != nil {
		return fmt.Errorf("failed to decode aggregation bits: %w", err)
	}

	offset := 0
	for _, committee := range active {
		for i, v := range committee.Validators {
			if aggregationBits[offset+i] {
				markValidator(v, attested)
			}
		}
		offset += len(committee.Validators)
	}
	return nil
}

func markValidator(raw string, attested map[models.ValidatorIndex]bool) {
	var idx models.ValidatorIndex
	if _, err := fmt.Sscanf(raw, "%d", &idx); err == nil {
		attested[idx] = true
	}
}

// RewardData is one validator's ideal-vs-actual reward breakdown for an
// epoch, plus the per-category suboptimal verdicts derived from it.
type RewardData struct {
	IdealHead    models.Gwei
	IdealTarget  models.Gwei
	IdealSource  models.Gwei
	IdealTotal   models.Gwei
	ActualHead   models.SignedGwei
	ActualTarget models.SignedGwei
	ActualSource models.SignedGwei
	ActualTotal  models.SignedGwei

	SuboptimalSource bool
	SuboptimalTarget bool
	SuboptimalHead   bool
}

// ProcessRewards classifies each validator's actual attestation rewards
// against the ideal reward row for its own effective balance. A
// validator whose effective balance has no ideal row in the response is
// skipped rather than matched against another balance's row.
func ProcessRewards(rewards *models.RewardsResponse, validators map[models.ValidatorIndex]models.Gwei) (map[models.ValidatorIndex]RewardData, error) {
	idealByBalance := make(map[models.Gwei]models.IdealReward, len(rewards.Data.IdealRewards))
	for _, ideal := range rewards.Data.IdealRewards {
		idealByBalance[ideal.EffectiveBalance] = ideal
	}

	totalByIndex := make(map[models.ValidatorIndex]models.TotalReward, len(rewards.Data.TotalRewards))
	for _, total := range rewards.Data.TotalRewards {
		totalByIndex[total.ValidatorIndex] = total
	}

	result := make(map[models.ValidatorIndex]RewardData, len(validators))
	for idx, effectiveBalance := range validators {
		total, ok := totalByIndex[idx]
		if !ok {
			continue
		}
		ideal, ok := idealByBalance[effectiveBalance]
		if !ok {
			continue
		}

		data := RewardData{
			IdealHead:    ideal.Head,
			IdealTarget:  ideal.Target,
			IdealSource:  ideal.Source,
			ActualHead:   total.Head,
			ActualTarget: total.Target,
			ActualSource: total.Source,
			IdealTotal:   ideal.Source + ideal.Target + ideal.Head,
			ActualTotal:  total.Source + total.Target + total.Head,
		}
		data.SuboptimalSource = total.Source < models.SignedGwei(ideal.Source)
		data.SuboptimalTarget = total.Target < models.SignedGwei(ideal.Target)
		data.SuboptimalHead = total.Head < models.SignedGwei(ideal.Head)

		result[idx] = data
	}
	return result, nil
}

// ProcessLiveness flattens a liveness response into an index->isLive map.
func ProcessLiveness(liveness []models.ValidatorLiveness) map[models.ValidatorIndex]bool {
	result := make(map[models.ValidatorIndex]bool, len(liveness))
	for _, l := range liveness {
		result[l.Index] = l.IsLive
	}
	return result
}

// BitvectorToBigInt parses a hex-encoded bitvector as a big integer.
func BitvectorToBigInt(hexStr string) (*big.Int, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	val, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		return nil, fmt.Errorf("failed to parse bitvector: %s", hexStr)
	}
	return val, nil
}
