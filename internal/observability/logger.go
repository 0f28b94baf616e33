package observability

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionLogger derives a logger for one link session from the global
// logger. An empty id gets a fresh uuid.
func SessionLogger(link, id string) (zerolog.Logger, string) {
	if id == "" {
		id = uuid.NewString()
	}
	logger := log.Logger.With().Str("link", link).Str("session", id).Logger()
	return logger, id
}
