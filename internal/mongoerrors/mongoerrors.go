// Copyright 2021 FerretDB Inc.
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

// Package mongoerrors gives the manager's two self-originated error
// conditions (CursorNotFound, CursorInUse) stable MongoDB-compatible codes
// and names, so a client speaking the wire protocol sees the same error
// shape it would from a real mongos.
package mongoerrors

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Error is a command error originated by this module, as opposed to one
// forwarded unchanged from an underlying cursor.
type Error struct {
	mongo.CommandError

	// Argument, if non-empty, names the cursor id or namespace the error is about.
	Argument string
}

// New returns an *Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		CommandError: mongo.CommandError{
			Code:    int32(code),
			Name:    code.String(),
			Message: msg,
		},
	}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// GoString implements fmt.GoStringer.
func (e *Error) GoString() string {
	return fmt.Sprintf(
		"&mongoerrors.Error{Code: %d, Name: `%s`, Message: `%s`, Argument: `%s`}",
		e.Code, e.Name, e.Message, e.Argument,
	)
}

// CursorNotFound returns the error returned when no entry matches a
// (namespace, id) lookup, or when the matching entry is already killed.
func CursorNotFound(id int64) *Error {
	err := New(ErrCursorNotFound, fmt.Sprintf("cursor id %d not found", id))
	err.Argument = fmt.Sprintf("%d", id)

	return err
}

// CursorInUse returns the error returned when a cursor exists but is
// currently pinned by another caller.
func CursorInUse(id int64) *Error {
	err := New(ErrCursorInUse, fmt.Sprintf("cursor id %d is already in use", id))
	err.Argument = fmt.Sprintf("%d", id)

	return err
}

// IsCursorNotFound reports whether err is (or wraps) a CursorNotFound error.
func IsCursorNotFound(err error) bool {
	var e *Error

	return errors.As(err, &e) && Code(e.Code) == ErrCursorNotFound
}

// IsCursorInUse reports whether err is (or wraps) a CursorInUse error.
func IsCursorInUse(err error) bool {
	var e *Error

	return errors.As(err, &e) && Code(e.Code) == ErrCursorInUse
}
