// Package config loads comando link and command-table settings from TOML.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/comando/internal/stream"
)

// Config is the resolved runtime configuration.
type Config struct {
	Stream        stream.Config
	ProtocolID    uint8
	SessionID     string
	MetricsListen string
	Commands      []CommandConfig
}

// CommandConfig is one [[commands]] entry. Type names are codec names
// ("int", "float", "string", ...).
type CommandConfig struct {
	ID     int      `toml:"id"`
	Name   string   `toml:"name"`
	Args   []string `toml:"args"`
	Result []string `toml:"result"`
	Doc    string   `toml:"doc"`
}

type linkFileConfig struct {
	Transport   string `toml:"transport"`
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	DataBits    int    `toml:"data_bits"`
	Parity      string `toml:"parity"`
	StopBits    string `toml:"stop_bits"`
	Settle      string `toml:"settle"`
	Address     string `toml:"address"`
	DialTimeout string `toml:"dial_timeout"`
	ProtocolID  int    `toml:"protocol_id"`
	SessionID   string `toml:"session_id"`

	OpenAttempts   int    `toml:"open_attempts"`
	OpenBackoff    string `toml:"open_backoff"`
	OpenBackoffMax string `toml:"open_backoff_max"`
}

// comando.toml key mapping to runtime settings.
type fileConfig struct {
	Link    linkFileConfig `toml:"link"`
	Metrics struct {
		Listen string `toml:"listen"`
	} `toml:"metrics"`
	Commands []CommandConfig `toml:"commands"`
}

func Default() Config {
	return Config{Stream: stream.DefaultConfig()}
}

// Load decodes path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load comando config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, &ValidationError{Field: undecoded[0].String(), Reason: "unknown key"}
	}

	link := raw.Link
	if meta.IsDefined("link", "transport") {
		cfg.Stream.Kind = strings.ToLower(strings.TrimSpace(link.Transport))
		if cfg.Stream.Kind == "ws" {
			cfg.Stream.Kind = stream.KindWebSocket
		}
	}
	if meta.IsDefined("link", "port") {
		cfg.Stream.Serial.Port = strings.TrimSpace(link.Port)
	}
	if meta.IsDefined("link", "baud") {
		cfg.Stream.Serial.Baud = link.Baud
	}
	if meta.IsDefined("link", "data_bits") {
		cfg.Stream.Serial.DataBits = link.DataBits
	}
	if meta.IsDefined("link", "parity") {
		cfg.Stream.Serial.Parity = strings.TrimSpace(link.Parity)
	}
	if meta.IsDefined("link", "stop_bits") {
		cfg.Stream.Serial.StopBits = strings.TrimSpace(link.StopBits)
	}
	if meta.IsDefined("link", "settle") {
		d, err := parseDuration("link.settle", link.Settle)
		if err != nil {
			return Config{}, err
		}
		cfg.Stream.Serial.SettleDelay = d
	}
	if meta.IsDefined("link", "address") {
		cfg.Stream.Address = strings.TrimSpace(link.Address)
	}
	if meta.IsDefined("link", "dial_timeout") {
		d, err := parseDuration("link.dial_timeout", link.DialTimeout)
		if err != nil {
			return Config{}, err
		}
		cfg.Stream.DialTimeout = d
	}
	if meta.IsDefined("link", "open_attempts") {
		if link.OpenAttempts < 1 {
			return Config{}, &ValidationError{Field: "link.open_attempts", Reason: "must be at least 1"}
		}
		cfg.Stream.Retry.Attempts = link.OpenAttempts
	}
	if meta.IsDefined("link", "open_backoff") {
		d, err := parseDuration("link.open_backoff", link.OpenBackoff)
		if err != nil {
			return Config{}, err
		}
		cfg.Stream.Retry.InitialDelay = d
	}
	if meta.IsDefined("link", "open_backoff_max") {
		d, err := parseDuration("link.open_backoff_max", link.OpenBackoffMax)
		if err != nil {
			return Config{}, err
		}
		cfg.Stream.Retry.MaxDelay = d
	}
	if meta.IsDefined("link", "protocol_id") {
		if link.ProtocolID < 0 || link.ProtocolID > 255 {
			return Config{}, &ValidationError{Field: "link.protocol_id", Reason: fmt.Sprintf("%d out of range 0..255", link.ProtocolID)}
		}
		cfg.ProtocolID = uint8(link.ProtocolID)
	}
	if meta.IsDefined("link", "session_id") {
		cfg.SessionID = strings.TrimSpace(link.SessionID)
	}
	if meta.IsDefined("metrics", "listen") {
		cfg.MetricsListen = strings.TrimSpace(raw.Metrics.Listen)
	}
	cfg.Commands = raw.Commands

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: err.Error()}
	}
	if d < 0 {
		return 0, &ValidationError{Field: field, Reason: "must not be negative"}
	}
	return d, nil
}
