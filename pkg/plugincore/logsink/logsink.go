// Package logsink adapts structured loggers to plugincore.Logger.
package logsink

import (
	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// Zerolog forwards diagnostics to logger, tagged with the namespace.
func Zerolog(logger zerolog.Logger, namespace string) plugincore.Logger {
	return func(level plugincore.Level, msg string) {
		var ev *zerolog.Event
		switch level {
		case plugincore.LevelWarn:
			ev = logger.Warn()
		case plugincore.LevelError:
			ev = logger.Error()
		default:
			ev = logger.Info()
		}
		ev.Str("component", "plugincore").
			Str("namespace", namespace).
			Msg(msg)
	}
}

// Logrus forwards diagnostics to logger, tagged with the namespace.
func Logrus(logger *logrus.Logger, namespace string) plugincore.Logger {
	entry := logger.WithFields(logrus.Fields{
		"component": "plugincore",
		"namespace": namespace,
	})

	return func(level plugincore.Level, msg string) {
		switch level {
		case plugincore.LevelWarn:
			entry.Warn(msg)
		case plugincore.LevelError:
			entry.Error(msg)
		default:
			entry.Info(msg)
		}
	}
}
