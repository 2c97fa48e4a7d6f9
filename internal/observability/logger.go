package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns a sub-logger of the global logger tagged with the
// component name. Call it after logging is configured.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
