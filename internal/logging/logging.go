// Package logging sets up the structured logger the rest of the core
// shares, replacing the teacher's single `Server.logf` wrapper around
// stdlib `log` with a logrus logger configured the way docker-compose
// configures its own CLI logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the server-wide logger. verbose raises the level to Debug;
// otherwise the core logs at Info and above.
func New(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// Discard returns a logger that drops everything, for tests that don't
// want fixture noise on stderr.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
