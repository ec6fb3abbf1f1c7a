// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package logger

import (
	"encoding/json"
	"fmt"

	"github.com/mattermost/mattermost/server/public/shared/mlog"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

// Logger is the structured logging surface used across the gateway. It
// satisfies config.Warner.
type Logger interface {
	Debug(msg string, keyValuePairs ...any)
	Info(msg string, keyValuePairs ...any)
	Warn(msg string, keyValuePairs ...any)
	Error(msg string, keyValuePairs ...any)
	Flush() error
}

var _ config.Warner = (Logger)(nil)

// mlogAdapter adapts mlog.Logger to Logger
type mlogAdapter struct {
	logger *mlog.Logger
}

// New wraps an mlog.Logger
func New(logger *mlog.Logger) Logger {
	return &mlogAdapter{logger: logger}
}

func (a *mlogAdapter) Debug(msg string, keyValuePairs ...any) {
	a.logger.Debug(msg, keyValuePairsToFields(keyValuePairs)...)
}

func (a *mlogAdapter) Info(msg string, keyValuePairs ...any) {
	a.logger.Info(msg, keyValuePairsToFields(keyValuePairs)...)
}

func (a *mlogAdapter) Warn(msg string, keyValuePairs ...any) {
	a.logger.Warn(msg, keyValuePairsToFields(keyValuePairs)...)
}

func (a *mlogAdapter) Error(msg string, keyValuePairs ...any) {
	a.logger.Error(msg, keyValuePairsToFields(keyValuePairs)...)
}

func (a *mlogAdapter) Flush() error {
	return a.logger.Flush()
}

// keyValuePairsToFields converts alternating key/value arguments to mlog
// fields. Pairs with a non-string key and a trailing odd value are dropped.
func keyValuePairsToFields(keyValuePairs []any) []mlog.Field {
	fields := make([]mlog.Field, 0, len(keyValuePairs)/2)
	for i := 0; i < len(keyValuePairs)-1; i += 2 {
		key, ok := keyValuePairs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, mlog.Any(key, keyValuePairs[i+1]))
	}
	return fields
}

// Levels returns the mlog levels enabled for level, most verbose first.
func Levels(level config.LogLevel) []mlog.Level {
	levels := []mlog.Level{mlog.LvlWarn, mlog.LvlError}
	if level >= config.LogLevelInfo {
		levels = append([]mlog.Level{mlog.LvlInfo}, levels...)
	}
	if level >= config.LogLevelDebug {
		levels = append([]mlog.Level{mlog.LvlDebug}, levels...)
	}
	return levels
}

// CreateLoggerWithOptions creates a Logger writing plain text to stderr and,
// when logFile is set, JSON to that file. Standard library log output is
// redirected through it.
func CreateLoggerWithOptions(level config.LogLevel, logFile string) (Logger, error) {
	mlogger, err := mlog.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create new logger: %w", err)
	}

	err = mlogger.ConfigureTargets(targets(level, logFile), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logger targets: %w", err)
	}

	// stdout carries the stdio transport, so nothing may log there
	mlogger.RedirectStdLog(mlog.LvlStdLog)

	return New(mlogger), nil
}

func targets(level config.LogLevel, logFile string) mlog.LoggerConfiguration {
	levels := Levels(level)

	cfg := make(mlog.LoggerConfiguration)
	cfg["console"] = mlog.TargetCfg{
		Type:          "console",
		Levels:        levels,
		Format:        "plain",
		FormatOptions: json.RawMessage(`{"enable_color": false, "delim": " "}`),
		Options:       json.RawMessage(`{"out": "stderr"}`),
		MaxQueueSize:  1000,
	}

	if logFile != "" {
		options, _ := json.Marshal(map[string]any{"compress": false, "filename": logFile})
		cfg["file"] = mlog.TargetCfg{
			Type:         "file",
			Levels:       levels,
			Format:       "json",
			Options:      options,
			MaxQueueSize: 1000,
		}
	}

	return cfg
}

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Flush() error         { return nil }
