package config

import (
	"strings"

	"github.com/danmuck/comando/internal/protocol/codec"
	"github.com/danmuck/comando/internal/protocol/event"
)

// Table builds the event command table. Arguments use the stock codec
// encoders for their declared types.
func (c Config) Table() ([]event.Command, error) {
	out := make([]event.Command, 0, len(c.Commands))
	for _, cc := range c.Commands {
		cmd := event.Command{
			ID:   uint8(cc.ID),
			Name: strings.TrimSpace(cc.Name),
			Doc:  strings.TrimSpace(cc.Doc),
		}
		for _, raw := range cc.Args {
			t, err := codec.ParseType(raw)
			if err != nil {
				return nil, &ValidationError{Field: "commands." + cmd.Name + ".args", Reason: err.Error()}
			}
			cmd.Args = append(cmd.Args, codec.As(t))
		}
		for _, raw := range cc.Result {
			t, err := codec.ParseType(raw)
			if err != nil {
				return nil, &ValidationError{Field: "commands." + cmd.Name + ".result", Reason: err.Error()}
			}
			cmd.Result = append(cmd.Result, t)
		}
		out = append(out, cmd)
	}
	return out, nil
}
