// Package logging configures logrus and carries request-scoped loggers
// through contexts.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger for the given environment.  Production logs are JSON
// for the log shipper; everything else gets the human-readable text format.
// An unknown level falls back to info.
func New(env, level string) *logrus.Logger {
	return newWithOutput(os.Stdout, env, level)
}

func newWithOutput(w io.Writer, env, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	if env == "prod" || env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

type ctxKey struct{}

// ToContext attaches l to ctx.
func ToContext(ctx context.Context, l logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or fallback when there is
// none.  A nil fallback means the logrus standard logger.
func FromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if l, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return logrus.StandardLogger()
}
