package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/stream"
	"github.com/danmuck/comando/internal/testutil/testlog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comando.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
[link]
transport = "ws"
address = "ws://bridge.local/link"
dial_timeout = "750ms"
protocol_id = 200

[metrics]
listen = "127.0.0.1:9464"

[[commands]]
id = 7
name = "move"
args = ["int", "float"]
doc = "  drive  "

[[commands]]
id = 8
name = "status"
result = ["str", "bool"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Stream.Kind != stream.KindWebSocket {
		t.Fatalf("unexpected transport: %q", cfg.Stream.Kind)
	}
	if cfg.Stream.Address != "ws://bridge.local/link" {
		t.Fatalf("unexpected address: %q", cfg.Stream.Address)
	}
	if cfg.Stream.DialTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected dial timeout: %v", cfg.Stream.DialTimeout)
	}
	if cfg.Stream.Serial.Baud != 115200 {
		t.Fatalf("expected default baud, got %d", cfg.Stream.Serial.Baud)
	}
	if cfg.ProtocolID != 200 {
		t.Fatalf("unexpected protocol id: %d", cfg.ProtocolID)
	}
	if cfg.MetricsListen != "127.0.0.1:9464" {
		t.Fatalf("unexpected metrics listen: %q", cfg.MetricsListen)
	}

	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(table))
	}
	move := table[0]
	if move.ID != 7 || move.Name != "move" || move.Doc != "drive" {
		t.Fatalf("unexpected move entry: %+v", move)
	}
	if len(move.Args) != 2 || move.Args[0].Type() != codec.Int || move.Args[1].Type() != codec.Float {
		t.Fatalf("unexpected move args: %+v", move.Args)
	}
	status := table[1]
	if len(status.Args) != 0 || len(status.Result) != 2 || status.Result[0] != codec.String || status.Result[1] != codec.Bool {
		t.Fatalf("unexpected status entry: %+v", status)
	}
}

func TestLoadSerialSettings(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
[link]
port = "/dev/ttyUSB1"
baud = 9600
parity = "even"
stop_bits = "2"
settle = "1500ms"
open_attempts = 4
open_backoff = "100ms"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s := cfg.Stream.Serial
	if cfg.Stream.Kind != stream.KindSerial || s.Port != "/dev/ttyUSB1" || s.Baud != 9600 {
		t.Fatalf("unexpected serial config: %+v", cfg.Stream)
	}
	if s.Parity != "even" || s.StopBits != "2" || s.SettleDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected serial framing: %+v", s)
	}
	r := cfg.Stream.Retry
	if r.Attempts != 4 || r.InitialDelay != 100*time.Millisecond || r.MaxDelay != 5*time.Second {
		t.Fatalf("unexpected retry config: %+v", r)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{"serial without port", "[link]\ntransport = \"serial\"\n", "link.port"},
		{"tcp without address", "[link]\ntransport = \"tcp\"\n", "link.address"},
		{"unknown transport", "[link]\ntransport = \"smoke\"\n", "link.transport"},
		{"protocol id range", "[link]\nport = \"x\"\nprotocol_id = 256\n", "link.protocol_id"},
		{"bad duration", "[link]\nport = \"x\"\nsettle = \"soon\"\n", "link.settle"},
		{"open attempts", "[link]\nport = \"x\"\nopen_attempts = 0\n", "link.open_attempts"},
		{"bad parity", "[link]\nport = \"x\"\nparity = \"maybe\"\n", "link"},
		{"unknown key", "[link]\nport = \"x\"\nspeed = 3\n", "link.speed"},
		{"missing name", "[link]\nport = \"x\"\n[[commands]]\nid = 1\n", "commands[0].name"},
		{"command id range", "[link]\nport = \"x\"\n[[commands]]\nid = 300\nname = \"a\"\n", "commands[0] (a).id"},
		{"duplicate id", "[link]\nport = \"x\"\n[[commands]]\nid = 1\nname = \"a\"\n[[commands]]\nid = 1\nname = \"b\"\n", "commands[1] (b).id"},
		{"duplicate name", "[link]\nport = \"x\"\n[[commands]]\nid = 1\nname = \"a\"\n[[commands]]\nid = 2\nname = \"a\"\n", "commands[1] (a).name"},
		{"unknown arg type", "[link]\nport = \"x\"\n[[commands]]\nid = 1\nname = \"a\"\nargs = [\"int64\"]\n", "commands[0] (a).args[0]"},
		{"unknown result type", "[link]\nport = \"x\"\n[[commands]]\nid = 1\nname = \"a\"\nresult = [\"int\", \"blob\"]\n", "commands[0] (a).result[1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("unexpected field: got %q want %q (%v)", verr.Field, tc.field, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "load comando config") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestTemplatesLoad(t *testing.T) {
	testlog.Start(t)
	for _, kind := range []string{"serial", "tcp", "websocket"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		if err := WriteTemplate(path, kind, false); err == nil {
			t.Fatalf("expected refusal to overwrite %s", path)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load %s template: %v", kind, err)
		}
		if cfg.Stream.Kind != kind {
			t.Fatalf("unexpected kind: %q", cfg.Stream.Kind)
		}
		table, err := cfg.Table()
		if err != nil || len(table) != 3 {
			t.Fatalf("unexpected template table: %v %d", err, len(table))
		}
	}
	if _, err := Template("pigeon"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
