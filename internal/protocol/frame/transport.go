package frame

import (
	"errors"
	"io"

	"github.com/danmuck/comando/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNoConsumer = errors.New("frame: no message consumer")

// Consumer receives every payload read off the stream.
type Consumer interface {
	ReceiveMessage(payload []byte) error
}

// Transport owns one stream and moves whole frames over it. It is not safe
// for concurrent use; one caller drives both directions.
type Transport struct {
	rw       io.ReadWriter
	consumer Consumer
	logger   zerolog.Logger
}

func NewTransport(rw io.ReadWriter) *Transport {
	return &Transport{rw: rw, logger: log.Logger}
}

func (t *Transport) SetConsumer(c Consumer) {
	t.consumer = c
}

func (t *Transport) SetLogger(logger zerolog.Logger) {
	t.logger = logger
}

// Send writes payload as one frame.
func (t *Transport) Send(payload []byte) error {
	err := WriteFrame(t.rw, payload)
	observability.RecordFrame(observability.DirectionOut, len(payload), err)
	if err != nil {
		t.logger.Error().Err(err).Int("len", len(payload)).Msg("frame send failed")
		return err
	}
	t.logger.Debug().Int("len", len(payload)).Hex("payload", payload).Msg("frame out")
	return nil
}

// ReceiveOne blocks for one frame and hands its payload to the consumer.
// Consumer errors are returned unchanged.
func (t *Transport) ReceiveOne() error {
	if t.consumer == nil {
		return ErrNoConsumer
	}
	payload, err := ReadFrame(t.rw)
	observability.RecordFrame(observability.DirectionIn, len(payload), err)
	if err != nil {
		t.logger.Error().Err(err).Msg("frame receive failed")
		return err
	}
	t.logger.Debug().Int("len", len(payload)).Hex("payload", payload).Msg("frame in")
	return t.consumer.ReceiveMessage(payload)
}
