// Package logging builds the logr.Logger shared by the commands and the
// service, and adapts it to the logger interface badger expects.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to stderr. Messages at V(n) are printed
// when n <= verbosity.
func New(verbosity int) logr.Logger {
	return NewWriter(os.Stderr, verbosity)
}

// NewWriter is New with a chosen destination.
func NewWriter(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(log.New(w, "", log.LstdFlags))
}

// Discard returns a logger that drops everything.
func Discard() logr.Logger {
	return logr.Discard()
}

// BadgerLogger forwards badger's printf style messages to a logr.Logger.
// Errors go to Error, warnings and infos to V(1) and debug output to V(2),
// since badger is chatty at info level.
type BadgerLogger struct {
	log logr.Logger
}

func NewBadgerLogger(l logr.Logger) *BadgerLogger {
	return &BadgerLogger{log: l.WithName("badger")}
}

func (b *BadgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Error(nil, trim(format, args))
}

func (b *BadgerLogger) Warningf(format string, args ...interface{}) {
	b.log.V(1).Info(trim(format, args), "level", "warning")
}

func (b *BadgerLogger) Infof(format string, args ...interface{}) {
	b.log.V(1).Info(trim(format, args))
}

func (b *BadgerLogger) Debugf(format string, args ...interface{}) {
	b.log.V(2).Info(trim(format, args))
}

// trim formats and drops the trailing newline badger puts on most lines.
func trim(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

// Writer returns an io.Writer that logs each written line at info level.
// It lets line oriented writers such as HTTP access loggers share the
// logger.
func Writer(l logr.Logger) io.Writer {
	return lineWriter{log: l}
}

type lineWriter struct {
	log logr.Logger
}

func (w lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.log.Info(line)
		}
	}
	return len(p), nil
}
