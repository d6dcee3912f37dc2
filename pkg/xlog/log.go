// Package xlog is the tree-wide structured logger, a thin wrapper over
// github.com/pingcap/log (itself zap-backed) so call sites can log with
// typed fields instead of format strings.
package xlog

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Field re-exports zap.Field so callers only need to import this package.
type Field = zap.Field

// String, Uint64, and Bool are the field constructors used throughout the
// leaf operator and GC; re-exported here to keep call sites from importing
// zap directly.
func String(key, value string) Field { return zap.String(key, value) }
func Uint64(key string, value uint64) Field { return zap.Uint64(key, value) }
func Uint32(key string, value uint32) Field { return zap.Uint32(key, value) }
func Int(key string, value int) Field       { return zap.Int(key, value) }
func Bool(key string, value bool) Field     { return zap.Bool(key, value) }
func Err(err error) Field                   { return zap.Error(err) }

func Info(msg string, fields ...Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { log.Error(msg, fields...) }
func Debug(msg string, fields ...Field) { log.Debug(msg, fields...) }

// SetLevel adjusts the global log level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	cfg := log.Config{Level: level}
	logger, props, err := log.InitLogger(&cfg)
	if err != nil {
		return
	}
	log.ReplaceGlobals(logger, props)
}
