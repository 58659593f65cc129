package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	LoadConfig(filepath.Join(t.TempDir(), "config.toml"))

	if AppConfig.Reader.PreloadAmount != 2 {
		t.Fatalf("expected default preload amount, got %d", AppConfig.Reader.PreloadAmount)
	}
	if AppConfig.Reader.PreferredLanguage != "en" {
		t.Fatalf("expected default language, got %q", AppConfig.Reader.PreferredLanguage)
	}
	if AppConfig.Network.MinRequestIntervalMS != 250 {
		t.Fatalf("expected default pacing, got %d", AppConfig.Network.MinRequestIntervalMS)
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
data_dir = "/tmp/houdoku-test"

[reader]
preload_amount = 5
preferred_language = "pt-BR"

[network]
min_request_interval_ms = 100
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	LoadConfig(path)
	if AppConfig.DataDir != "/tmp/houdoku-test" {
		t.Fatalf("unexpected data dir %q", AppConfig.DataDir)
	}
	if AppConfig.Reader.PreloadAmount != 5 || AppConfig.Reader.PreferredLanguage != "pt-BR" {
		t.Fatalf("unexpected reader config %+v", AppConfig.Reader)
	}
	if AppConfig.Network.MinRequestIntervalMS != 100 {
		t.Fatalf("unexpected network config %+v", AppConfig.Network)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := expandPath("~/data"); got != filepath.Join(home, "data") {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got := expandPath("/abs/data"); got != "/abs/data" {
		t.Fatalf("absolute path should pass through, got %q", got)
	}
}
