package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns a starter comando.toml for the given transport kind.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "serial", "":
		return serialTemplate + commandsTemplate, nil
	case "tcp":
		return tcpTemplate + commandsTemplate, nil
	case "websocket", "ws":
		return websocketTemplate + commandsTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serialTemplate = `[link]
transport = "serial"
port = "/dev/ttyACM0"
baud = 115200
settle = "2s"
open_attempts = 5
open_backoff = "500ms"
protocol_id = 0

[metrics]
listen = ""
`

const tcpTemplate = `[link]
transport = "tcp"
address = "127.0.0.1:7000"
dial_timeout = "5s"
protocol_id = 0

[metrics]
listen = "127.0.0.1:9464"
`

const websocketTemplate = `[link]
transport = "websocket"
address = "ws://127.0.0.1:8080/link"
dial_timeout = "5s"
protocol_id = 0

[metrics]
listen = "127.0.0.1:9464"
`

const commandsTemplate = `
[[commands]]
id = 0
name = "ping"
args = ["int"]
result = ["int"]
doc = "controller echoes the value back"

[[commands]]
id = 1
name = "led"
args = ["bool"]
doc = "switch the status led"

[[commands]]
id = 2
name = "status"
result = ["string", "float"]
doc = "state name and supply voltage"
`
