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
	"fmt"
	"net/http"
)

// Error is a failure reported by a remote service. LogMsg goes to the log,
// SimpleMsg goes to the caller.
type Error struct {
	LogMsg     string
	SimpleMsg  string
	Response   string
	URL        string
	HTTPStatus int
}

// Error implements error
func (e Error) Error() string {
	return e.SimpleMsg
}

// Log writes the full error to the log and returns an error carrying the simple message
func (e Error) Log(ctx LogContext, prefix string) error {
	fields := contextFields(ctx)
	if e.URL != "" {
		fields = append(fields, "url", e.URL)
	}
	if e.HTTPStatus != 0 {
		fields = append(fields, "status", e.HTTPStatus)
	}
	if e.Response != "" {
		fields = append(fields, "response", e.Response)
	}
	msg := e.LogMsg
	if msg == "" {
		msg = e.SimpleMsg
	}
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	current().Errorw(msg, fields...)
	if e.SimpleMsg == "" {
		return errors.New(msg)
	}
	return errors.New(e.SimpleMsg)
}

// HTTPErr is an error carrying an HTTP status
type HTTPErr struct {
	Status  int
	Message string
}

func (err HTTPErr) Error() string {
	return fmt.Sprintf("%d: %v", err.Status, err.Message)
}

// HTTPError logs the message and writes it to the response with the given status
func HTTPError(request *http.Request, writer http.ResponseWriter, ctx LogContext, message string, status int) {
	LogAudit(ctx, LogAuditInput{Actor: request.URL.String(), Action: request.Method + " response", Actee: request.RemoteAddr, Message: message, Severity: ERROR})
	http.Error(writer, message, status)
}
