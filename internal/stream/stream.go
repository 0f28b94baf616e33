// Package stream opens the physical byte streams a link runs over.
//
// Ownership boundary:
// - serial ports
// - tcp sockets
// - websocket bridges
//
// Every stream is a blocking io.ReadWriteCloser; framing lives above it.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	KindSerial    = "serial"
	KindTCP       = "tcp"
	KindWebSocket = "websocket"
)

var ErrUnknownKind = errors.New("stream: unknown transport kind")

// Config selects and parameterizes one stream.
type Config struct {
	Kind string

	Serial SerialConfig

	// Address is host:port for tcp or a ws:// / wss:// URL for websocket.
	Address     string
	DialTimeout time.Duration

	Retry Backoff
}

func DefaultConfig() Config {
	return Config{
		Kind:        KindSerial,
		Serial:      DefaultSerialConfig(),
		DialTimeout: 5 * time.Second,
		Retry:       DefaultBackoff(),
	}
}

// Open opens the stream cfg describes, retrying per cfg.Retry.
func Open(ctx context.Context, cfg Config) (io.ReadWriteCloser, error) {
	return Retry(ctx, cfg.Retry, func(ctx context.Context) (io.ReadWriteCloser, error) {
		return open(ctx, cfg)
	})
}

func open(ctx context.Context, cfg Config) (io.ReadWriteCloser, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindSerial, "":
		return OpenSerial(cfg.Serial)
	case KindTCP:
		return DialTCP(ctx, cfg.Address, cfg.DialTimeout)
	case KindWebSocket, "ws":
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		ws, err := DialWebSocket(ctx, cfg.Address)
		if err != nil {
			return nil, err
		}
		return ws, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
