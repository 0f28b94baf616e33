package config

import (
	"fmt"
	"strings"

	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/stream"
)

// ValidationError names the offending config field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func Validate(cfg Config) error {
	switch cfg.Stream.Kind {
	case stream.KindSerial:
		if strings.TrimSpace(cfg.Stream.Serial.Port) == "" {
			return &ValidationError{Field: "link.port", Reason: "required for serial transport"}
		}
		if _, err := stream.SerialMode(cfg.Stream.Serial); err != nil {
			return &ValidationError{Field: "link", Reason: err.Error()}
		}
	case stream.KindTCP, stream.KindWebSocket:
		if strings.TrimSpace(cfg.Stream.Address) == "" {
			return &ValidationError{Field: "link.address", Reason: fmt.Sprintf("required for %s transport", cfg.Stream.Kind)}
		}
	default:
		return &ValidationError{Field: "link.transport", Reason: fmt.Sprintf("unknown transport %q", cfg.Stream.Kind)}
	}

	ids := make(map[int]string, len(cfg.Commands))
	names := make(map[string]bool, len(cfg.Commands))
	for i, c := range cfg.Commands {
		field := fmt.Sprintf("commands[%d]", i)
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return &ValidationError{Field: field + ".name", Reason: "required"}
		}
		field = fmt.Sprintf("commands[%d] (%s)", i, name)
		if c.ID < 0 || c.ID > 255 {
			return &ValidationError{Field: field + ".id", Reason: fmt.Sprintf("%d out of range 0..255", c.ID)}
		}
		if prev, dup := ids[c.ID]; dup {
			return &ValidationError{Field: field + ".id", Reason: fmt.Sprintf("%d already used by %q", c.ID, prev)}
		}
		if names[name] {
			return &ValidationError{Field: field + ".name", Reason: "duplicate"}
		}
		ids[c.ID] = name
		names[name] = true
		for j, raw := range c.Args {
			if _, err := codec.ParseType(raw); err != nil {
				return &ValidationError{Field: fmt.Sprintf("%s.args[%d]", field, j), Reason: err.Error()}
			}
		}
		for j, raw := range c.Result {
			if _, err := codec.ParseType(raw); err != nil {
				return &ValidationError{Field: fmt.Sprintf("%s.result[%d]", field, j), Reason: err.Error()}
			}
		}
	}
	return nil
}
