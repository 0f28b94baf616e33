// Package event names the commands of a command protocol and turns inbound
// commands into listener calls and blocking call results.
package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/comando/internal/observability"
	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/protocol/command"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingName      = errors.New("event: command missing name")
	ErrDuplicateName    = errors.New("event: duplicate command name")
	ErrDuplicateID      = errors.New("event: duplicate command id")
	ErrUnknownEventName = errors.New("event: unknown event name")
	ErrArityMismatch    = errors.New("event: argument count mismatch")
	ErrAlreadyWaiting   = errors.New("event: blocking call already pending")
)

// Command describes one named command: the encoders for its outbound
// arguments and the wire types of its inbound results.
type Command struct {
	ID     uint8
	Name   string
	Args   []codec.Encoder
	Result []codec.Type
	Doc    string
}

// Listener receives the decoded results of an inbound event.
type Listener func(values ...any)

// Manager maps event names onto a command protocol. Like the protocol
// under it, it is driven by a single caller.
type Manager struct {
	cmd       *command.Protocol
	byID      map[uint8]Command
	byName    map[string]Command
	listeners map[string][]Listener
	wait      wait
	logger    zerolog.Logger
}

// NewManager validates table and registers the manager as the handler for
// every command id in it.
func NewManager(cmd *command.Protocol, table []Command) (*Manager, error) {
	m := &Manager{
		cmd:       cmd,
		byID:      make(map[uint8]Command, len(table)),
		byName:    make(map[string]Command, len(table)),
		listeners: make(map[string][]Listener),
		logger:    log.Logger,
	}
	for _, c := range table {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("%w: id %d", ErrMissingName, c.ID)
		}
		if _, dup := m.byName[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, c.Name)
		}
		if prev, dup := m.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateID, c.ID, prev.Name, c.Name)
		}
		m.byID[c.ID] = c
		m.byName[c.Name] = c
	}
	for id := range m.byID {
		cmd.Register(id, m)
	}
	return m, nil
}

func (m *Manager) SetLogger(logger zerolog.Logger) {
	m.logger = logger
}

// Commands returns the table ordered by id.
func (m *Manager) Commands() []Command {
	out := make([]Command, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Lookup(name string) (Command, bool) {
	c, ok := m.byName[name]
	return c, ok
}

// On subscribes l to name. Listeners run in registration order.
func (m *Manager) On(name string, l Listener) error {
	if _, ok := m.byName[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventName, name)
	}
	m.listeners[name] = append(m.listeners[name], l)
	return nil
}

// HandleCommand decodes the result fields of cid and dispatches them by
// name.
func (m *Manager) HandleCommand(cid uint8, p *command.Protocol) error {
	c, ok := m.byID[cid]
	if !ok {
		return fmt.Errorf("%w: %d", command.ErrUnknownCommand, cid)
	}
	results := make([]any, 0, len(c.Result))
	for i, t := range c.Result {
		v, err := p.ReadArg(t)
		if err != nil {
			return fmt.Errorf("event %q result %d of %d: %w", c.Name, i+1, len(c.Result), err)
		}
		results = append(results, v)
	}
	m.logger.Debug().Str("event", c.Name).Uint8("cid", cid).Interface("results", results).Msg("event")
	m.dispatch(c.Name, results)
	return nil
}

func (m *Manager) dispatch(name string, results []any) {
	for _, l := range m.listeners[name] {
		l(results...)
	}
	m.wait.resolve(name, results)
}

// Trigger sends name with args converted by the command's encoders.
// Commands that declare no arguments are sent empty.
func (m *Manager) Trigger(name string, args ...any) error {
	c, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventName, name)
	}
	if len(c.Args) == 0 {
		if len(args) > 0 {
			m.logger.Warn().Str("event", name).Int("args", len(args)).Msg("command takes no arguments, dropping")
		}
		return m.cmd.Send(c.ID)
	}
	if len(args) != len(c.Args) {
		return fmt.Errorf("%w: %q takes %d, got %d", ErrArityMismatch, name, len(c.Args), len(args))
	}

	values := make([]any, len(args))
	for i, enc := range c.Args {
		v, err := enc.Encode(args[i])
		if err != nil {
			return fmt.Errorf("event %q arg %d: %w", name, i, err)
		}
		values[i] = v
	}

	if err := m.cmd.Start(c.ID); err != nil {
		return err
	}
	for i, enc := range c.Args {
		if err := m.cmd.WriteArgAs(values[i], enc.Type()); err != nil {
			m.cmd.Abandon()
			return fmt.Errorf("event %q arg %d: %w", name, i, err)
		}
	}
	if err := m.cmd.Finish(); err != nil {
		m.cmd.Abandon()
		return err
	}
	m.logger.Debug().Str("event", name).Uint8("cid", c.ID).Msg("trigger")
	return nil
}

// BlockingTrigger sends name and then pumps the stream until an event of the
// same name is dispatched, returning its results. Other events that arrive
// meanwhile go to their listeners. A failed receive cycle ends the wait
// with that error.
func (m *Manager) BlockingTrigger(name string, args ...any) ([]any, error) {
	return m.BlockingTriggerContext(context.Background(), name, args...)
}

// BlockingTriggerContext is BlockingTrigger with ctx checked between receive
// cycles. It cannot interrupt a read that is already blocked.
func (m *Manager) BlockingTriggerContext(ctx context.Context, name string, args ...any) ([]any, error) {
	if m.wait.state != waitIdle {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyWaiting, m.wait.name)
	}
	link := m.cmd.Link()
	if link == nil {
		return nil, command.ErrNotAttached
	}

	start := time.Now()
	if err := m.Trigger(name, args...); err != nil {
		return nil, err
	}
	m.wait.begin(name)
	defer m.wait.reset()

	for m.wait.state == waitPending {
		if err := ctx.Err(); err != nil {
			m.wait.fail(err)
			break
		}
		if err := link.HandleStream(); err != nil {
			m.wait.fail(err)
		}
	}

	results, err := m.wait.results, m.wait.err
	observability.RecordCall(name, time.Since(start), err)
	if err != nil {
		m.logger.Error().Err(err).Str("event", name).Msg("blocking call failed")
		return nil, err
	}
	return results, nil
}

// Waiting reports the name of the pending blocking call, if any.
func (m *Manager) Waiting() (string, bool) {
	if m.wait.state != waitPending {
		return "", false
	}
	return m.wait.name, true
}
