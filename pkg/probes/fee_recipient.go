package probes

import (
	"context"
	"strings"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
)

// ExecutionBlockSource is the subset of execution.Client this probe
// needs, used as a fallback when a beacon block's own execution payload
// is missing its fee recipient.
type ExecutionBlockSource interface {
	GetBlockByHash(ctx context.Context, hash string) (*models.ExecutionBlockByHash, error)
}

// FeeRecipientCompliant reports whether block paid out to one of the
// configured allow-listed fee recipients; it does not check who proposed
// the block. A block with no execution payload at all (pre-Bellatrix)
// is always compliant, since the check doesn't apply yet. A payload
// present but with an empty fee recipient falls back to resolving the
// execution block by hash.
func FeeRecipientCompliant(ctx context.Context, client ExecutionBlockSource, block models.Block, allowed []string) (bool, error) {
	if len(allowed) == 0 {
		return true, nil
	}

	payload := block.Message.Body.ExecutionPayload
	if payload == nil {
		return true, nil
	}

	recipient := payload.FeeRecipient
	if recipient == "" {
		if client == nil || payload.BlockHash == "" {
			return true, nil
		}
		execBlock, err := client.GetBlockByHash(ctx, payload.BlockHash)
		if err != nil {
			return false, err
		}
		if execBlock == nil {
			return true, nil
		}
		recipient = execBlock.Miner
	}

	for _, a := range allowed {
		if strings.EqualFold(a, recipient) {
			return true, nil
		}
	}
	return false, nil
}
