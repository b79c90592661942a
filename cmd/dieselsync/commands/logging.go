package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogging configures zerolog. Output goes to stderr so it does not
// pollute stdout, which parse and diff write their results to. A non-empty
// level takes precedence over verbose.
func InitLogging(verbose bool, level string) error {
	lvl := zerolog.InfoLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}
