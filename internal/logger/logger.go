// Package logger builds the zerolog logger shared by the scheduler binaries.
package logger

import (
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

var configureOnce sync.Once

// hasStack reports whether err already carries a github.com/pkg/errors
// stack trace.
func hasStack(err error) bool {
	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	_, ok := err.(stackTracer)
	return ok
}

// configure teaches zerolog to render github.com/pkg/errors stack traces.
// Events logged with .Stack() get one attached even when the error started
// out as a plain std error.
func configure() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if !hasStack(err) {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		if hasStack(err) {
			return err
		}
		return pkgerrors.WithStack(err)
	}
}

// New returns a service logger writing JSON to stdout, tagged with the
// service name and timestamped.
func New(serviceName string) zerolog.Logger {
	configureOnce.Do(configure)
	return zerolog.New(os.Stdout).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// SetGlobalLevel applies a configured level string such as "debug" or
// "warn". Unknown or empty values leave the current level untouched.
func SetGlobalLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return
	}
	zerolog.SetGlobalLevel(lvl)
}
