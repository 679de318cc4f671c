package mock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeedAddonDir(t *testing.T) {
	serverPath, modsPath, err := SeedAddonDir()
	if err != nil {
		t.Fatalf("SeedAddonDir: %v", err)
	}
	defer os.RemoveAll(serverPath)

	entries, err := os.ReadDir(modsPath)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != len(sampleAddons) {
		t.Errorf("got %d entries, want %d", len(entries), len(sampleAddons))
	}

	props, err := os.ReadFile(filepath.Join(serverPath, "server.properties"))
	if err != nil {
		t.Fatalf("reading server.properties: %v", err)
	}
	if !strings.Contains(string(props), "max-players=20") {
		t.Errorf("server.properties = %q", props)
	}
}
