package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fixturePath resolves bank/<bankCode>/testdata/fixtures/<name>. A name
// without an extension is taken as HTML.
func fixturePath(bankCode, name string) string {
	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filepath.Dir(filename)) // up to bank/

	if filepath.Ext(name) == "" {
		name += ".html"
	}
	return filepath.Join(baseDir, strings.ToLower(bankCode), "testdata", "fixtures", name)
}

// LoadFixture reads a fixture file for the given bank.
func LoadFixture(t *testing.T, bankCode, name string) string {
	t.Helper()

	data, err := os.ReadFile(fixturePath(bankCode, name))
	if err != nil {
		t.Fatalf("Failed to load fixture %s/%s: %v", bankCode, name, err)
	}
	return string(data)
}

// LoadFixtureBytes is LoadFixture for JSON and other binary-safe payloads.
func LoadFixtureBytes(t *testing.T, bankCode, name string) []byte {
	t.Helper()
	return []byte(LoadFixture(t, bankCode, name))
}
