// Package ceremonyconfig loads and validates the JSON configuration shared
// by the coordinator, participant, verifier, and air-gap binaries. Direct
// adaptation of cmd/auctiond/config.go's load-or-create-default shape, with
// fields renamed from the auction domain to the ceremony's.
package ceremonyconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Config is the ceremony's runtime configuration.
type Config struct {
	// Ceremony parameters
	NumPlayers  int    `json:"num_players"`
	CircuitPath string `json:"circuit_path"`

	// File paths
	TranscriptPath string `json:"transcript_path"`
	KeyOutputPath  string `json:"key_output_path"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Performance
	Workers        int `json:"workers"`
	TimeoutSeconds int `json:"timeout_seconds"`

	// Transport
	ListenAddress      string `json:"listen_address"`
	CoordinatorAddress string `json:"coordinator_address"`

	// Audit
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default ceremony configuration.
func DefaultConfig() *Config {
	return &Config{
		NumPlayers:         10,
		CircuitPath:        "circuit.r1cs",
		TranscriptPath:     "transcript.bin",
		KeyOutputPath:      "keypair.bin",
		LogLevel:           "info",
		LogFile:            "ceremony.log",
		Workers:            4,
		TimeoutSeconds:     60,
		ListenAddress:      ":9000",
		CoordinatorAddress: "127.0.0.1:9000",
		EnableAudit:        true,
		AuditLogPath:       "audit.log",
	}
}

// LoadConfig loads configuration from configPath, creating and saving a
// default configuration if no file exists there yet.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "ceremonyconfig: opening config file")
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, errors.Wrap(err, "ceremonyconfig: decoding config file")
		}
		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, errors.Wrap(err, "ceremonyconfig: saving default config")
	}
	return config, nil
}

// SaveConfig writes config to configPath as indented JSON, creating the
// parent directory if needed.
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "ceremonyconfig: creating config directory")
	}

	file, err := os.Create(configPath)
	if err != nil {
		return errors.Wrap(err, "ceremonyconfig: creating config file")
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return errors.Wrap(err, "ceremonyconfig: encoding config")
	}
	return nil
}

// Validate reports whether every configuration field is within a sane
// range, rejecting configurations that would make the ceremony meaningless
// (zero players, non-positive worker count or timeout) before any network
// connection is attempted.
func (c *Config) Validate() error {
	if c.NumPlayers <= 0 {
		return errors.New("ceremonyconfig: num_players must be positive")
	}
	if c.CircuitPath == "" {
		return errors.New("ceremonyconfig: circuit_path must be set")
	}
	if c.TranscriptPath == "" {
		return errors.New("ceremonyconfig: transcript_path must be set")
	}
	if c.Workers <= 0 {
		return errors.New("ceremonyconfig: workers must be positive")
	}
	if c.TimeoutSeconds <= 0 {
		return errors.New("ceremonyconfig: timeout_seconds must be positive")
	}
	return nil
}
