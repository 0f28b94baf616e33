package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var ErrMissingAddress = errors.New("stream: tcp address required")

// DialTCP connects to a controller bridged onto a tcp socket (ser2net and
// similar).
func DialTCP(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrMissingAddress
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", address, err)
	}
	return conn, nil
}
