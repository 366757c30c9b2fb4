// Package watchedset loads the set of validator pubkeys this watcher
// tracks ("our" scope), from a static pubkeys file, a Web3Signer
// instance, or both, along with any static labels attached to them.
package watchedset

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var pubkeyPattern = regexp.MustCompile(`^0x[0-9a-f]{96}$`)

// ValidatePubkey reports whether s is a lowercase, 0x-prefixed, 48-byte
// (96 hex character) BLS public key.
func ValidatePubkey(s string) bool {
	return pubkeyPattern.MatchString(s)
}

// WatchedSet is the pubkeys this watcher tracks, plus any static labels
// attached to each one. The label key schema is frozen the first time a
// non-empty label set is observed, so every entry from then on must
// carry exactly that key set.
type WatchedSet struct {
	Pubkeys   map[string]struct{}
	Labels    map[string]map[string]string
	LabelKeys []string
}

// Loader reads the pubkeys/labels files and optionally a Web3Signer
// instance to build a WatchedSet.
type Loader struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Load builds a WatchedSet from a pubkeys file, a labels file, and an
// optional Web3Signer URL. The pubkeys set is the union of the pubkeys
// file, the Web3Signer listing, and every pubkey named in the labels
// file. Any malformed pubkey aborts the load: a
// watcher that silently dropped an operator's key would misreport that
// key as absent from the network rather than failing loudly.
func (l *Loader) Load(ctx context.Context, pubkeysFilePath, labelsFilePath string, removeFirstLabel bool, web3signerURL string) (*WatchedSet, error) {
	ws := &WatchedSet{
		Pubkeys: make(map[string]struct{}),
		Labels:  make(map[string]map[string]string),
	}

	if pubkeysFilePath != "" {
		keys, err := readPubkeysFile(pubkeysFilePath)
		if err != nil {
			return nil, fmt.Errorf("reading pubkeys file: %w", err)
		}
		for _, k := range keys {
			ws.Pubkeys[k] = struct{}{}
		}
	}

	if web3signerURL != "" {
		keys, err := l.fetchWeb3SignerKeys(ctx, web3signerURL)
		if err != nil {
			return nil, fmt.Errorf("fetching web3signer keys: %w", err)
		}
		for _, k := range keys {
			ws.Pubkeys[k] = struct{}{}
		}
	}

	if labelsFilePath != "" {
		labels, keys, err := readLabelsFile(labelsFilePath, removeFirstLabel)
		if err != nil {
			return nil, fmt.Errorf("reading labels file: %w", err)
		}
		ws.Labels = labels
		ws.LabelKeys = keys
		for pubkey := range labels {
			ws.Pubkeys[pubkey] = struct{}{}
		}
	}

	l.logger.WithFields(logrus.Fields{
		"pubkeys": len(ws.Pubkeys),
		"labeled": len(ws.Labels),
	}).Info("loaded watched validator set")

	return ws, nil
}

func readPubkeysFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !ValidatePubkey(line) {
			return nil, fmt.Errorf("invalid pubkey %q in %s", line, path)
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}

// readLabelsFile parses a CSV file whose first column is the validator
// pubkey and remaining columns are "key=value" label pairs. When
// removeFirstLabel is set, the first label column (right after the
// pubkey) is dropped before the label map is built, letting operators
// keep a human-readable identifier in the file without exposing it as a
// Prometheus label. Every row must produce the same set of label keys:
// that key set becomes the frozen schema for this watcher's lifetime.
func readLabelsFile(path string, removeFirstLabel bool) (map[string]map[string]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	labels := make(map[string]map[string]string)
	var schema []string
	schemaSet := false

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, err
		}
		if len(record) == 0 {
			continue
		}
		pubkey := strings.ToLower(strings.TrimSpace(record[0]))
		if pubkey == "" || strings.HasPrefix(pubkey, "#") {
			continue
		}
		if !ValidatePubkey(pubkey) {
			return nil, nil, fmt.Errorf("invalid pubkey %q in %s", pubkey, path)
		}

		fields := record[1:]
		if removeFirstLabel && len(fields) > 0 {
			fields = fields[1:]
		}

		rowLabels := make(map[string]string, len(fields))
		for _, field := range fields {
			k, v, ok := strings.Cut(strings.TrimSpace(field), "=")
			if !ok {
				return nil, nil, fmt.Errorf("malformed label %q for %s in %s (want key=value)", field, pubkey, path)
			}
			rowLabels[k] = v
		}

		if !schemaSet {
			schema = sortedKeys(rowLabels)
			schemaSet = true
		} else if !sameKeySet(schema, rowLabels) {
			return nil, nil, fmt.Errorf("label key schema mismatch for %s in %s: expected keys %v", pubkey, path, schema)
		}

		labels[pubkey] = rowLabels
	}

	return labels, schema, nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func sameKeySet(schema []string, m map[string]string) bool {
	if len(schema) != len(m) {
		return false
	}
	for _, k := range schema {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

type web3SignerKeysResponse struct {
	Keys []string `json:"keys"`
}

// fetchWeb3SignerKeys lists the public keys a Web3Signer instance holds.
func (l *Loader) fetchWeb3SignerKeys(ctx context.Context, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/v1/eth2/publicKeys", nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web3signer returned status %d", resp.StatusCode)
	}

	// Web3Signer's publicKeys endpoint returns a bare JSON array; some
	// deployments wrap it under "keys" (e.g. behind a proxy cache), so
	// accept either shape.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading web3signer response: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(body, &raw); err == nil {
		return normalizePubkeys(raw)
	}

	var wrapped web3SignerKeysResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding web3signer response: %w", err)
	}
	return normalizePubkeys(wrapped.Keys)
}

func normalizePubkeys(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if !ValidatePubkey(k) {
			return nil, fmt.Errorf("invalid pubkey %q from web3signer", k)
		}
		out = append(out, k)
	}
	return out, nil
}
