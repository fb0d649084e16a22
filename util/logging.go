// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppName is the name reported by BasicLogContext
const AppName = "bf-metadata-summary"

// Severity is the audit severity of a log entry
type Severity string

// Audit severities
const (
	DEBUG   Severity = "DEBUG"
	INFO    Severity = "INFO"
	NOTICE  Severity = "NOTICE"
	WARNING Severity = "WARNING"
	ERROR   Severity = "ERROR"
	FATAL   Severity = "FATAL"
)

// LogContext is anything that can identify the application and session a log line belongs to
type LogContext interface {
	AppName() string
	SessionID() string
	LogRootDir() string
}

// BasicLogContext is a LogContext for code that has no session of its own
type BasicLogContext struct {
	sessionID string
}

// AppName returns the application name
func (c *BasicLogContext) AppName() string {
	return AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *BasicLogContext) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *BasicLogContext) LogRootDir() string {
	return ""
}

// LogAuditInput describes an auditable action
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity Severity
}

var (
	loggerMu sync.RWMutex
	logger   *zap.SugaredLogger
)

func init() {
	logger = newLogger(os.Getenv(LOG_MODE))
}

func newLogger(mode string) *zap.SugaredLogger {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "dev", "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return zapLogger.Sugar()
}

// SetLogger replaces the logger behind the Log* functions and returns the previous one
func SetLogger(l *zap.Logger) *zap.SugaredLogger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	previous := logger
	logger = l.Sugar()
	return previous
}

// RestoreLogger puts back a logger returned by SetLogger
func RestoreLogger(l *zap.SugaredLogger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// SyncLogger flushes buffered log entries
func SyncLogger() {
	_ = current().Sync()
}

func current() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func contextFields(ctx LogContext) []interface{} {
	if ctx == nil {
		return []interface{}{"app", AppName}
	}
	return []interface{}{"app", ctx.AppName(), "session", ctx.SessionID()}
}

// LogInfo logs an informational message
func LogInfo(ctx LogContext, message string) {
	current().Infow(message, contextFields(ctx)...)
}

// LogAlert logs a message that an operator should notice
func LogAlert(ctx LogContext, message string) {
	current().Warnw(message, contextFields(ctx)...)
}

// LogAudit logs who did what to whom
func LogAudit(ctx LogContext, input LogAuditInput) {
	fields := append(contextFields(ctx),
		"actor", input.Actor,
		"action", input.Action,
		"actee", input.Actee)
	switch input.Severity {
	case ERROR, FATAL:
		current().Errorw(input.Message, fields...)
	case WARNING:
		current().Warnw(input.Message, fields...)
	case DEBUG:
		current().Debugw(input.Message, fields...)
	default:
		current().Infow(input.Message, fields...)
	}
}

// LogSimpleErr logs an error alongside a human message and
// returns an error carrying only the human message.
func LogSimpleErr(ctx LogContext, message string, err error) error {
	fields := contextFields(ctx)
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	current().Errorw(message, fields...)
	return errors.New(message)
}

// PsuUUID returns a random UUID string
func PsuUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
