// Package execution provides a minimal JSON-RPC client for the
// execution layer, used only to resolve the fee recipient of a block
// when the consensus layer's payload doesn't carry one directly (older
// beacon node versions omit execution_payload, or a watcher needs to
// double-check a mismatch by hash).
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilnfi/eth-validator-watcher-go/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	maxRetries = 3
	retryDelay = 2 * time.Second
)

// Client is a thin JSON-RPC client against an execution node.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an execution JSON-RPC client.
func NewClient(url string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt)):
			}
		}

		payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
		if err != nil {
			return fmt.Errorf("marshal rpc request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create rpc request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("rpc request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading rpc response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("execution node returned HTTP %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("execution node returned HTTP %d: %s", resp.StatusCode, string(body))
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(body, &rpcResp); err != nil {
			return fmt.Errorf("decode rpc response: %w", err)
		}
		if rpcResp.Error != nil {
			return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
		}
		if result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("decode rpc result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("rpc call %s failed after %d attempts: %w", method, maxRetries, lastErr)
}

// GetBlockByHash resolves the execution block identified by hash, used to
// cross-check a fee recipient when the consensus layer's own record of
// it is missing or suspect.
func (c *Client) GetBlockByHash(ctx context.Context, hash string) (*models.ExecutionBlockByHash, error) {
	var result models.ExecutionBlockByHash
	if err := c.call(ctx, "eth_getBlockByHash", []interface{}{hash, false}, &result); err != nil {
		return nil, fmt.Errorf("failed to get execution block %s: %w", hash, err)
	}
	if result.Hash == "" {
		return nil, nil
	}
	return &result, nil
}
