/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"github.com/golang/glog"
	"go.uber.org/zap"
)

// Logger is the logging surface handed to every GraphQL request.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type glogLogger struct{}

// NewLogger returns a Logger that writes through glog. Debug output is only
// emitted at verbosity 2 and above.
func NewLogger() Logger {
	return glogLogger{}
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	if glog.V(2) {
		glog.InfoDepth(1, sprintf(format, args...))
	}
}

func (glogLogger) Infof(format string, args ...interface{}) {
	glog.InfoDepth(1, sprintf(format, args...))
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, sprintf(format, args...))
}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, sprintf(format, args...))
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger. A nil logger gets a production JSON logger.
func NewZapLogger(l *zap.Logger) (Logger, error) {
	if l == nil {
		var err error
		if l, err = zap.NewProduction(); err != nil {
			return nil, Wrapf(err, "while building zap logger")
		}
	}
	return &zapLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}, nil
}

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }

func (l *zapLogger) Infof(format string, args ...interface{}) { l.s.Infof(format, args...) }

func (l *zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }

func (l *zapLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }

// Sync flushes buffered zap output. It is a no-op for other loggers.
func Sync(l Logger) {
	if zl, ok := l.(*zapLogger); ok {
		_ = zl.s.Sync()
	}
}
