// Package logging provides the leveled logger used across the remote_dram
// driver. It implements dragonboat's logger.ILogger interface so that every
// package here that logs (transport, transport/tcp, server, remotedram) logs through the
// same factory and level configuration without depending on a consensus
// engine.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// remoteDRAMLogger implements logger.ILogger with a compact, grep-friendly
// line format: LEVEL | pkg | message.
type remoteDRAMLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *remoteDRAMLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *remoteDRAMLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *remoteDRAMLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *remoteDRAMLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *remoteDRAMLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *remoteDRAMLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

func (l *remoteDRAMLogger) log(levelStr, format string, args ...interface{}) {
	l.logger.Printf("%-5s | %-10s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}

func newLogger(name string) logger.ILogger {
	return &remoteDRAMLogger{
		name:   name,
		level:  logger.INFO,
		logger: log.New(os.Stdout, "", log.Ldate|log.Ltime),
	}
}

var factoryOnce sync.Once

// Get returns the package-scoped logger for name, installing the
// remote_dram logger factory on first use.
func Get(name string) logger.ILogger {
	factoryOnce.Do(func() {
		logger.SetLoggerFactory(newLogger)
	})
	return logger.GetLogger(name)
}

// ParseLevel converts a string level ("debug", "info", "warn"/"warning",
// "error") into a logger.LogLevel, defaulting to INFO on an unrecognized
// value.
func ParseLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG
	case "info":
		return logger.INFO
	case "warning", "warn":
		return logger.WARNING
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

// SetLevel sets the level of every logger this driver registers.
func SetLevel(level logger.LogLevel) {
	for _, name := range []string{"wire", "storage", "transport", "transport/tcp", "server", "client", "remotedram"} {
		Get(name).SetLevel(level)
	}
}
