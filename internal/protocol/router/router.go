// Package router multiplexes several protocols over one framed stream.
package router

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/comando/internal/protocol/frame"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingProtocol  = errors.New("router: message missing protocol id")
	ErrUnknownProtocol  = errors.New("router: unknown protocol")
	ErrTooManyProtocols = errors.New("router: more than 256 protocols")
)

// Protocol is a sub-protocol multiplexed over the stream.
type Protocol interface {
	ReceiveMessage(payload []byte) error
}

// Attacher is implemented by protocols that send. The router hands them
// their Link when they are registered.
type Attacher interface {
	Attach(link Link)
}

// Router demultiplexes frames by a leading protocol id byte. There is one
// Router per stream.
type Router struct {
	transport *frame.Transport
	protocols map[uint8]Protocol
	logger    zerolog.Logger
}

// New wraps t and registers protocols with ids 0..len(protocols)-1. The
// router becomes t's consumer.
func New(t *frame.Transport, protocols ...Protocol) (*Router, error) {
	if len(protocols) > 256 {
		return nil, ErrTooManyProtocols
	}
	r := &Router{
		transport: t,
		protocols: make(map[uint8]Protocol, len(protocols)),
		logger:    log.Logger,
	}
	t.SetConsumer(r)
	for i, p := range protocols {
		r.AddProtocol(uint8(i), p)
	}
	return r, nil
}

func (r *Router) SetLogger(logger zerolog.Logger) {
	r.logger = logger
	r.transport.SetLogger(logger)
}

// AddProtocol registers p under id, replacing any previous holder.
func (r *Router) AddProtocol(id uint8, p Protocol) {
	r.protocols[id] = p
	if a, ok := p.(Attacher); ok {
		a.Attach(Link{router: r, id: id})
	}
}

// Protocol returns the protocol registered under id.
func (r *Router) Protocol(id uint8) (Protocol, bool) {
	p, ok := r.protocols[id]
	return p, ok
}

// IDs lists registered protocol ids in ascending order.
func (r *Router) IDs() []uint8 {
	ids := make([]uint8, 0, len(r.protocols))
	for id := range r.protocols {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ReceiveMessage routes payload[1:] to the protocol named by payload[0].
func (r *Router) ReceiveMessage(payload []byte) error {
	if len(payload) < 1 {
		return ErrMissingProtocol
	}
	id := payload[0]
	p, ok := r.protocols[id]
	if !ok {
		r.logger.Error().Uint8("proto", id).Msg("unknown protocol")
		return fmt.Errorf("%w: %d", ErrUnknownProtocol, id)
	}
	return p.ReceiveMessage(payload[1:])
}

// Send prefixes payload with id and writes it as one frame.
func (r *Router) Send(id uint8, payload []byte) error {
	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, id)
	buf = append(buf, payload...)
	return r.transport.Send(buf)
}

// HandleStream runs one blocking receive-and-dispatch cycle.
func (r *Router) HandleStream() error {
	return r.transport.ReceiveOne()
}

// Link is one sub-protocol's handle on the router.
type Link struct {
	router *Router
	id     uint8
}

func (l Link) ID() uint8 { return l.id }

// Send routes payload out under this link's protocol id.
func (l Link) Send(payload []byte) error {
	return l.router.Send(l.id, payload)
}

// HandleStream runs one receive-and-dispatch cycle on the shared stream.
// Frames for other protocols are dispatched to them as usual.
func (l Link) HandleStream() error {
	return l.router.HandleStream()
}
