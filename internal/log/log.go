// Package log is the structured logger every other package in this module
// calls into.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	setLogger(l)
}

func setLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

// SetDevelopment swaps in a human-readable development logger. Called by
// cmd/rleserver when run outside production.
func SetDevelopment() error {
	l, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	setLogger(l)
	return nil
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Infof(template string, args ...interface{})  { current().Infof(template, args...) }
func Errorf(template string, args ...interface{}) { current().Errorf(template, args...) }
func Warnf(template string, args ...interface{})  { current().Warnf(template, args...) }
func Debugf(template string, args ...interface{}) { current().Debugf(template, args...) }

func Error(args ...interface{}) { current().Error(args...) }
func Info(args ...interface{})  { current().Info(args...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}
