// Package testutils provides helpers shared by the package tests of the fetch engine.
package testutils

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a zerolog.Logger configured for testing.
// Output is tagged with the test name so interleaved logs of parallel tests stay readable.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}).
		Level(zerolog.DebugLevel).
		With().Str("test", t.Name()).Logger()
}
