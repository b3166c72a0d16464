// Package clog provides a logging facade for rdfstore packages.
//
// Every package logs through here instead of calling log or fmt directly,
// so the sink can be swapped (tests, embedders) without touching call sites.
package clog

import "github.com/golang/glog"

// Logger is the clog logging interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

var logger Logger = glogLogger{}

// SetLogger overrides the clog sink. Passing nil discards all log output.
func SetLogger(l Logger) { logger = l }

var verbosity int

// V reports whether the current clog verbosity is at or above level.
func V(level int) bool { return verbosity >= level }

// SetV sets the clog verbosity level.
func SetV(level int) { verbosity = level }

func Infof(format string, args ...interface{}) {
	if logger != nil {
		logger.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if logger != nil {
		logger.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if logger != nil {
		logger.Errorf(format, args...)
	}
}

func Fatalf(format string, args ...interface{}) {
	if logger != nil {
		logger.Fatalf(format, args...)
	}
}

type glogLogger struct{}

func (glogLogger) Infof(format string, args ...interface{})    { glog.Infof(format, args...) }
func (glogLogger) Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }
func (glogLogger) Errorf(format string, args ...interface{})   { glog.Errorf(format, args...) }
func (glogLogger) Fatalf(format string, args ...interface{})   { glog.Fatalf(format, args...) }
