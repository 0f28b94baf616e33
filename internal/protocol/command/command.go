package command

import (
	"errors"
	"fmt"

	"github.com/danmuck/comando/internal/observability"
	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/protocol/router"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyCommand       = errors.New("command: empty command message")
	ErrUnknownCommand     = errors.New("command: unknown command")
	ErrNoMoreArguments    = errors.New("command: no more arguments")
	ErrCommandAlreadyOpen = errors.New("command: command already open")
	ErrNoOpenCommand      = errors.New("command: no open command")
	ErrNotAttached        = errors.New("command: protocol not attached to a link")
)

// Link is the send path and receive pump the protocol is attached to.
// router.Link is the production implementation.
type Link interface {
	Send(payload []byte) error
	HandleStream() error
}

// Handler runs for one received command. Arguments are pulled from p with
// ReadArg.
type Handler interface {
	HandleCommand(cid uint8, p *Protocol) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cid uint8, p *Protocol) error

func (f HandlerFunc) HandleCommand(cid uint8, p *Protocol) error { return f(cid, p) }

// Protocol encodes and dispatches "command id + typed arguments" payloads.
// One instance serves one protocol id on the router.
type Protocol struct {
	link     Link
	handlers map[uint8]Handler
	logger   zerolog.Logger

	recv Cursor

	open bool
	sent []byte
}

func New() *Protocol {
	return &Protocol{
		handlers: make(map[uint8]Handler),
		logger:   log.Logger,
	}
}

// Attach binds the protocol to its router link. The router calls this on
// registration.
func (p *Protocol) Attach(link router.Link) {
	p.link = link
}

// Link returns the attached link, or nil.
func (p *Protocol) Link() Link {
	return p.link
}

func (p *Protocol) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// Register installs h for cid, replacing any previous handler.
func (p *Protocol) Register(cid uint8, h Handler) {
	p.handlers[cid] = h
}

func (p *Protocol) RegisterFunc(cid uint8, fn func(cid uint8, p *Protocol) error) {
	p.Register(cid, HandlerFunc(fn))
}

// ReceiveMessage dispatches payload[0] to its handler with payload[1:] as
// the argument cursor.
func (p *Protocol) ReceiveMessage(payload []byte) error {
	if len(payload) < 1 {
		return ErrEmptyCommand
	}
	cid := payload[0]
	p.recv.Reset(payload[1:])
	h, ok := p.handlers[cid]
	if !ok {
		observability.RecordCommand(observability.DirectionIn, cid, ErrUnknownCommand)
		p.logger.Error().Uint8("cid", cid).Msg("unknown command")
		return fmt.Errorf("%w: %d", ErrUnknownCommand, cid)
	}
	p.logger.Debug().Uint8("cid", cid).Int("args_len", len(payload)-1).Msg("dispatch")
	err := h.HandleCommand(cid, p)
	observability.RecordCommand(observability.DirectionIn, cid, err)
	return err
}

// HasArg reports whether unread argument bytes remain.
func (p *Protocol) HasArg() bool {
	return p.recv.Remaining() > 0
}

// ReadArg decodes the next argument of the current command as t.
func (p *Protocol) ReadArg(t codec.Type) (any, error) {
	return p.recv.Read(t)
}

// Start opens a new outbound command.
func (p *Protocol) Start(cid uint8) error {
	if p.open {
		return fmt.Errorf("%w: cannot start %d, %d is open", ErrCommandAlreadyOpen, cid, p.sent[0])
	}
	p.open = true
	p.sent = append(p.sent[:0], cid)
	return nil
}

// WriteArg appends v using the type inferred from its Go type.
func (p *Protocol) WriteArg(v any) error {
	t, err := codec.TypeOf(v)
	if err != nil {
		return err
	}
	return p.WriteArgAs(v, t)
}

// WriteArgAs appends v encoded as t.
func (p *Protocol) WriteArgAs(v any, t codec.Type) error {
	if !p.open {
		return ErrNoOpenCommand
	}
	out, err := codec.AppendPack(p.sent, t, v)
	if err != nil {
		return err
	}
	p.sent = out
	return nil
}

// Finish sends the open command. If the send fails the command stays open.
func (p *Protocol) Finish() error {
	if !p.open {
		return ErrNoOpenCommand
	}
	if p.link == nil {
		return ErrNotAttached
	}
	cid := p.sent[0]
	err := p.link.Send(p.sent)
	observability.RecordCommand(observability.DirectionOut, cid, err)
	if err != nil {
		return err
	}
	p.Abandon()
	return nil
}

// Abandon discards the open command, if any.
func (p *Protocol) Abandon() {
	p.open = false
	p.sent = p.sent[:0]
}

// Open reports whether a command is started but not finished.
func (p *Protocol) Open() bool {
	return p.open
}

// Send starts cid, writes args with inferred types and finishes. On any
// failure the command is abandoned, except when another command was
// already open, which is left untouched.
func (p *Protocol) Send(cid uint8, args ...any) error {
	if err := p.Start(cid); err != nil {
		return err
	}
	for i, a := range args {
		if err := p.WriteArg(a); err != nil {
			p.Abandon()
			return fmt.Errorf("command %d arg %d: %w", cid, i, err)
		}
	}
	if err := p.Finish(); err != nil {
		p.Abandon()
		return err
	}
	return nil
}
