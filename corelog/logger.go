// Copyright 2025 The Gati Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package corelog provides the structured logging wrapper shared by every
// component of the core (Route Manager, Queue Fabric, Hook Orchestrator).
// It is a slog wrapper following the same handler-type/functional-option
// shape as rivaas.dev/logging, trimmed to what the core itself needs.
package corelog

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// HandlerType selects the slog.Handler backing a Logger.
type HandlerType string

const (
	JSONHandler HandlerType = "json"
	TextHandler HandlerType = "text"
)

// ErrNilOutput is returned by New when configured with a nil output writer.
var ErrNilOutput = errors.New("corelog: output writer cannot be nil")

// Logger wraps an *slog.Logger with the service-name enrichment every
// rivaas.dev component attaches to its log lines.
type Logger struct {
	slogger     *slog.Logger
	handlerType HandlerType
	output      io.Writer
	level       slog.Leveler
	serviceName string
}

// Option configures a Logger.
type Option func(*Logger)

// WithHandlerType selects JSON or text output. Defaults to JSON.
func WithHandlerType(t HandlerType) Option { return func(l *Logger) { l.handlerType = t } }

// WithOutput sets the output writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option { return func(l *Logger) { l.output = w } }

// WithLevel sets the minimum log level. Defaults to slog.LevelInfo.
func WithLevel(level slog.Leveler) Option { return func(l *Logger) { l.level = level } }

// WithServiceName attaches a "service" attribute to every log entry.
func WithServiceName(name string) Option { return func(l *Logger) { l.serviceName = name } }

// New builds a Logger from options, erroring if the configuration is
// invalid (mirrors rivaas.dev/logging's New, which validates before
// building the underlying slog.Handler).
func New(opts ...Option) (*Logger, error) {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
		level:       slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.output == nil {
		return nil, ErrNilOutput
	}

	var handler slog.Handler
	opts2 := &slog.HandlerOptions{Level: l.level}
	if l.handlerType == TextHandler {
		handler = slog.NewTextHandler(l.output, opts2)
	} else {
		handler = slog.NewJSONHandler(l.output, opts2)
	}

	base := slog.New(handler)
	if l.serviceName != "" {
		base = base.With("service", l.serviceName)
	}
	l.slogger = base
	return l, nil
}

// MustNew builds a Logger or panics.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("corelog: " + err.Error())
	}
	return l
}

// NoOp returns a Logger that discards everything, used as the zero-value
// default for components that are not given an explicit logger.
func NoOp() *Logger {
	return MustNew(WithOutput(io.Discard))
}

// Default returns the package's default Logger: JSON-handler, stdout,
// info level. Components fall back to NoOp() rather than Default() so an
// embedder's logs stay silent until a Logger is wired explicitly.
func Default() *Logger {
	return MustNew()
}

// With returns a Logger that attaches the given key/value pairs to every
// subsequent entry, without re-validating configuration.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger:     l.slogger.With(args...),
		handlerType: l.handlerType,
		output:      l.output,
		level:       l.level,
		serviceName: l.serviceName,
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slogger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slogger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }
