// Package boltlog provides the leveled, component-tagged logging used
// throughout graphbolt. It mirrors the shape of a typical Bolt driver's
// internal logging facade: a small Logger interface, named components
// so call sites read "boltlog.Pool, id, message", and a process-wide
// correlation id generator.
package boltlog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Component names used as the first argument to every log call, matching
// the teacher driver's log.Session/log.Pool/log.Driver constants.
const (
	Driver     = "driver"
	Pool       = "pool"
	Connection = "connection"
	Session    = "session"
	Transaction = "transaction"
	Result     = "result"
)

// Logger is the leveled logging interface consumed by every graphbolt
// component. Implementations must be safe for concurrent use.
type Logger interface {
	Error(component, id string, err error)
	Errorf(component, id string, format string, args ...any)
	Warnf(component, id string, format string, args ...any)
	Infof(component, id string, format string, args ...any)
	Debugf(component, id string, format string, args ...any)
}

// NewID returns a short correlation id suitable for tagging a Connection,
// Session, or Transaction in log output.
func NewID() string {
	return uuid.New().String()
}

// NoOp is a Logger that discards everything. Used as the Config default so
// graphbolt never requires a logger to be wired up.
type NoOp struct{}

func (NoOp) Error(string, string, error)                {}
func (NoOp) Errorf(string, string, string, ...any)       {}
func (NoOp) Warnf(string, string, string, ...any)        {}
func (NoOp) Infof(string, string, string, ...any)        {}
func (NoOp) Debugf(string, string, string, ...any)       {}

// Logrus adapts a *logrus.Logger to the Logger interface.
type Logrus struct {
	entry *logrus.Logger
}

// NewLogrus builds a Logger backed by logrus, defaulting to text output on
// stderr at Info level, matching the console logger a Bolt driver ships
// for users who don't bring their own.
func NewLogrus() *Logrus {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return &Logrus{entry: l}
}

func (l *Logrus) fields(component, id string) logrus.Fields {
	return logrus.Fields{"component": component, "id": id}
}

func (l *Logrus) Error(component, id string, err error) {
	l.entry.WithFields(l.fields(component, id)).Error(err)
}

func (l *Logrus) Errorf(component, id, format string, args ...any) {
	l.entry.WithFields(l.fields(component, id)).Error(fmt.Sprintf(format, args...))
}

func (l *Logrus) Warnf(component, id, format string, args ...any) {
	l.entry.WithFields(l.fields(component, id)).Warn(fmt.Sprintf(format, args...))
}

func (l *Logrus) Infof(component, id, format string, args ...any) {
	l.entry.WithFields(l.fields(component, id)).Info(fmt.Sprintf(format, args...))
}

func (l *Logrus) Debugf(component, id, format string, args ...any) {
	l.entry.WithFields(l.fields(component, id)).Debug(fmt.Sprintf(format, args...))
}
