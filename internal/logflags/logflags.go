// Package logflags gates this module's diagnostic logging behind named
// layers, each toggled independently by the "--log-output" CLI flag's
// value when "--log" is set.
package logflags

import (
	"errors"
	"io/ioutil"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

var tracewire = false
var compiler = false
var session = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// TraceWire returns true if the rsp package should log every packet
// exchanged with the target.
func TraceWire() bool {
	return tracewire
}

// TraceWireLogger returns a configured logger for the rsp wire protocol.
func TraceWireLogger() *logrus.Entry {
	return makeLogger(tracewire, logrus.Fields{"layer": "rspconn"})
}

// Compiler returns true if SymbolCollector/ActionCompiler diagnostics
// should be logged.
func Compiler() bool {
	return compiler
}

// CompilerLogger returns a logger for action-compilation diagnostics.
func CompilerLogger() *logrus.Entry {
	return makeLogger(compiler, logrus.Fields{"layer": "compiler"})
}

// Session returns true if TraceSession state transitions should be
// logged.
func Session() bool {
	return session
}

// SessionLogger returns a logger for TraceSession state transitions.
func SessionLogger() *logrus.Entry {
	return makeLogger(session, logrus.Fields{"layer": "session"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets package flags based on the contents of logstr, a comma
// separated list of layers ("--log-output"); logFlag is "--log". With
// logFlag set and logstr empty, only the session layer is enabled.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(ioutil.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "session"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "tracewire":
			tracewire = true
		case "compiler":
			compiler = true
		case "session":
			session = true
		}
	}
	return nil
}
