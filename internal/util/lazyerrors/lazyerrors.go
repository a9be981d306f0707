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

// Package lazyerrors provides a way to wrap errors with a call-site frame
// without immediately paying the cost of capturing a full stack trace.
//
// It is meant for internal errors that a caller logs or returns unchanged,
// not for the two sentinel errors the cluster cursor manager originates
// itself (CursorNotFound, CursorInUse) — those live in mongoerrors, where
// their code and name matter more than their call site.
package lazyerrors

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Error wraps another error with the file, line, and function of its
// construction site.
type Error struct {
	err   error
	frame string
}

// New returns a new *Error wrapping a plain message, similarly to [errors.New].
func New(msg string) error {
	return &Error{err: errors.New(msg), frame: frame(1)}
}

// Errorf returns a new *Error wrapping the result of [fmt.Errorf].
func Errorf(format string, args ...any) error {
	return &Error{err: fmt.Errorf(format, args...), frame: frame(1)}
}

// Error implements error.
func (e *Error) Error() string {
	return "[" + e.frame + "] " + e.err.Error()
}

// Unwrap returns the wrapped error, allowing [errors.Is] and [errors.As] to
// see through it.
func (e *Error) Unwrap() error {
	return e.err
}

// GoString implements fmt.GoStringer.
func (e *Error) GoString() string {
	return "lazyerror(" + e.Error() + ")"
}

// frame returns "file:line func" for the caller skip levels above frame's own caller.
func frame(skip int) string {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}

	name := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = shortFuncName(fn.Name())
	}

	return shortFile(file) + ":" + strconv.Itoa(line) + " " + name
}

// shortFile returns the last path component of file.
func shortFile(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		return file[i+1:]
	}

	return file
}

// shortFuncName turns a fully-qualified function name such as
// "github.com/documentdb-io/ccursor/internal/util/lazyerrors.New" into
// "lazyerrors.New".
func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}

	return name
}
