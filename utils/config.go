package utils

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Reader settings
type ReaderConfig struct {
	// PreloadAmount is how many pages past the current one are fetched
	// ahead of the reader; 0 preloads the whole chapter.
	PreloadAmount     int    `toml:"preload_amount"`
	PreferredLanguage string `toml:"preferred_language"`
}

// Network settings
type NetworkConfig struct {
	// MinRequestIntervalMS paces requests against a single host.
	MinRequestIntervalMS int `toml:"min_request_interval_ms"`
}

// Root config
type Config struct {
	DataDir string        `toml:"data_dir"`
	Reader  ReaderConfig  `toml:"reader"`
	Network NetworkConfig `toml:"network"`
}

// Global variable to hold config
var AppConfig Config

func defaultConfig() Config {
	return Config{
		DataDir: filepath.Join(configDir(), "data"),
		Reader: ReaderConfig{
			PreloadAmount:     2,
			PreferredLanguage: "en",
		},
		Network: NetworkConfig{
			MinRequestIntervalMS: 250,
		},
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".houdoku"
	}
	return filepath.Join(home, ".config", "houdoku")
}

// expandPath replaces leading "~" with user home dir
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// LoadConfig reads config.toml into AppConfig. A missing file keeps the
// defaults; a malformed one is fatal.
func LoadConfig(path string) {
	AppConfig = defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	if err := toml.Unmarshal(data, &AppConfig); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	AppConfig.DataDir = expandPath(AppConfig.DataDir)
}

func Main() {
	LoadConfig(filepath.Join(configDir(), "config.toml"))
}
