// Package logsvc implements core.Logger. Events are printed through zerolog
// and, when a token is configured, reported to Rollbar.
package logsvc

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/user"
)

type RollbarLogger struct {
	zl      zerolog.Logger
	enabled bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewConsole returns a zerolog logger writing human readable lines to out.
func NewConsole(out io.Writer, conf *core.Config) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: conf.Env == "PROD" || conf.TestMode}).
		Level(level).
		With().
		Timestamp().
		Str("env", conf.Env).
		Logger()
}

func NewRollbarLogger(zl zerolog.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{zl: zl}
	l.Enable(conf.RollbarToken != "" && !conf.TestMode)
	return l
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.enabled = enabled
	rollbar.SetEnabled(enabled)
}

// Close waits for the pending Rollbar reports.
func (l *RollbarLogger) Close() {
	if l.enabled {
		rollbar.Wait()
	}
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set logged in User
		if usr, ok := arg.(user.User); ok {
			if !usrSet { // only set one User
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				usrSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l *RollbarLogger) print(ev *zerolog.Event, msg string, args []interface{}) {
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			ev = ev.Str("error", fmt.Sprintf("%+v", a))
		case user.User:
			ev = ev.Str("user", a.Username)
		case map[string]interface{}:
			ev = ev.Fields(a)
		default:
			ev = ev.Interface("extra", a)
		}
	}
	ev.Msg(msg)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Debug(l.prepare(msg, args)...)
	}
	l.print(l.zl.Debug(), msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Info(l.prepare(msg, args)...)
	}
	l.print(l.zl.Info(), msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Warning(l.prepare(msg, args)...)
	}
	l.print(l.zl.Warn(), msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Error(l.prepare(msg, args)...)
	}
	l.print(l.zl.Error(), msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	if l.enabled {
		rollbar.Critical(l.prepare(msg, args)...)
		rollbar.Wait()
	}
	l.print(l.zl.Fatal(), msg, args)
}
