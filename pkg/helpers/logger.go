package helpers

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevels lists the accepted LOG_LEVEL values.
var LogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// NewLogger creates a configured Logrus logger.
// An empty level defaults to debug in development and info elsewhere.
func NewLogger(appName, env, level string) *logrus.Logger {
	return newLogger(os.Stdout, appName, env, level)
}

func newLogger(out io.Writer, appName, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if env == "development" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := ParseLogLevel(level, env)
	if err != nil {
		logger.WithError(err).Warn("invalid log level, using default")
		lvl, _ = ParseLogLevel("", env)
	}
	logger.SetLevel(lvl)
	logger.AddHook(baseFieldsHook{fields: logrus.Fields{"app": appName, "env": env}})
	logger.WithField("level", lvl.String()).Info("logger initialized")
	return logger
}

// ParseLogLevel validates level against LogLevels.
func ParseLogLevel(level, env string) (logrus.Level, error) {
	if level == "" {
		if env == "development" {
			return logrus.DebugLevel, nil
		}
		return logrus.InfoLevel, nil
	}
	for _, l := range LogLevels {
		if l == level {
			return logrus.ParseLevel(level)
		}
	}
	return logrus.InfoLevel, fmt.Errorf("unsupported log level %q", level)
}

// baseFieldsHook stamps every entry with process-wide fields.
type baseFieldsHook struct {
	fields logrus.Fields
}

func (h baseFieldsHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h baseFieldsHook) Fire(e *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}
