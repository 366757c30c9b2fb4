package watchedset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func validPubkey(suffix byte) string {
	b := make([]byte, 96)
	for i := range b {
		b[i] = '0'
	}
	b[95] = suffix
	return "0x" + string(b)
}

func TestValidatePubkey(t *testing.T) {
	if !ValidatePubkey(validPubkey('a')) {
		t.Error("expected a well-formed pubkey to validate")
	}
	if ValidatePubkey("0xABC") {
		t.Error("expected a short/uppercase pubkey to be rejected")
	}
	if ValidatePubkey("deadbeef") {
		t.Error("expected a pubkey without 0x prefix to be rejected")
	}
}

func TestReadPubkeysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubkeys.txt")
	content := validPubkey('1') + "\n# comment\n\n" + validPubkey('2') + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	keys, err := readPubkeysFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

func TestReadPubkeysFileRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubkeys.txt")
	if err := os.WriteFile(path, []byte("not-a-pubkey\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := readPubkeysFile(path); err == nil {
		t.Error("expected an error for a malformed pubkey")
	}
}

func TestReadLabelsFileRemoveFirstLabel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.csv")
	key := validPubkey('3')
	content := key + ",operator=alice,pool=solo\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	labels, schema, err := readLabelsFile(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schema) != 1 || schema[0] != "pool" {
		t.Fatalf("expected schema [pool] after removing first label, got %v", schema)
	}
	if labels[key]["pool"] != "solo" {
		t.Errorf("expected pool=solo, got %v", labels[key])
	}
	if _, ok := labels[key]["operator"]; ok {
		t.Error("expected the first label to be dropped")
	}
}

func TestReadLabelsFileSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.csv")
	content := validPubkey('4') + ",pool=solo\n" + validPubkey('5') + ",operator=bob\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := readLabelsFile(path, false); err == nil {
		t.Error("expected a schema mismatch error across rows with different label keys")
	}
}

func TestLoaderFetchWeb3SignerKeys(t *testing.T) {
	key := validPubkey('6')
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["` + key + `"]`))
	}))
	defer srv.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	loader := NewLoader(logger)

	keys, err := loader.fetchWeb3SignerKeys(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Errorf("expected [%s], got %v", key, keys)
	}
}
