package stream

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

var (
	ErrMissingPort    = errors.New("stream: serial port required")
	ErrInvalidParity  = errors.New("stream: invalid parity")
	ErrInvalidStopBit = errors.New("stream: invalid stop bits")
)

type SerialConfig struct {
	Port     string
	Baud     int
	DataBits int
	Parity   string
	StopBits string
	// SettleDelay is waited after open; boards that reset on DTR need it
	// before their first frame.
	SettleDelay time.Duration
}

func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		Baud:     115200,
		DataBits: 8,
		Parity:   "none",
		StopBits: "1",
	}
}

// SerialMode converts cfg into a port mode.
func SerialMode(cfg SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Parity)) {
	case "", "none", "n":
		mode.Parity = serial.NoParity
	case "odd", "o":
		mode.Parity = serial.OddParity
	case "even", "e":
		mode.Parity = serial.EvenParity
	case "mark", "m":
		mode.Parity = serial.MarkParity
	case "space", "s":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidParity, cfg.Parity)
	}

	switch strings.TrimSpace(cfg.StopBits) {
	case "", "1":
		mode.StopBits = serial.OneStopBit
	case "1.5":
		mode.StopBits = serial.OnePointFiveStopBits
	case "2":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStopBit, cfg.StopBits)
	}
	return mode, nil
}

// OpenSerial opens a blocking serial port (no read timeout).
func OpenSerial(cfg SerialConfig) (serial.Port, error) {
	if strings.TrimSpace(cfg.Port) == "" {
		return nil, ErrMissingPort
	}
	mode, err := SerialMode(cfg)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("stream: open %s: %w", cfg.Port, err)
	}
	if cfg.SettleDelay > 0 {
		time.Sleep(cfg.SettleDelay)
	}
	return port, nil
}

// SerialPorts lists serial ports present on the host.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
