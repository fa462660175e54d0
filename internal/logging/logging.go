// Package logging configures the loggo module loggers for the commands.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/loggo"
)

// Setup routes every module logger to w at INFO, or DEBUG when debug is set.
// spec, when non-empty, is a loggo configuration string such as
// "pkgdesk.runner=TRACE" applied on top.
func Setup(w io.Writer, debug bool, spec string) error {
	level := loggo.INFO
	if debug {
		level = loggo.DEBUG
	}

	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(w, formatter(debug))); err != nil {
		return fmt.Errorf("replacing log writer: %w", err)
	}
	if err := loggo.ConfigureLoggers(fmt.Sprintf("<root>=%s", level)); err != nil {
		return err
	}
	if spec != "" {
		if err := loggo.ConfigureLoggers(spec); err != nil {
			return fmt.Errorf("logging config %q: %w", spec, err)
		}
	}
	return nil
}

func formatter(debug bool) func(loggo.Entry) string {
	return func(entry loggo.Entry) string {
		ts := entry.Timestamp.In(time.UTC).Format("2006-01-02 15:04:05")
		if debug {
			return fmt.Sprintf("%s %s %s %s", ts, entry.Level, entry.Module, entry.Message)
		}
		return fmt.Sprintf("%s %s %s", ts, entry.Level, entry.Message)
	}
}
