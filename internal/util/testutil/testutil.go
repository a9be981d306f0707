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

// Package testutil provides small helpers shared by this module's tests:
// a test-scoped logger, a test-scoped context, and a readable diff helper
// for failure messages.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger returns a zap logger that writes through t.Log, so failures show up
// next to the test output that caused them instead of after the run.
func Logger(t testing.TB) *zap.Logger {
	t.Helper()

	return zaptest.NewLogger(t)
}

// Ctx returns a context canceled when the test finishes.
func Ctx(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctx
}

// Diff renders a unified diff between the string representations of want and
// got, for use in assertion failure messages comparing Entry/Document
// snapshots.
func Diff(want, got any) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(fmt.Sprintf("%+v\n", want)),
		B:        difflib.SplitLines(fmt.Sprintf("%+v\n", got)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("want: %+v\ngot: %+v", want, got)
	}

	return diff
}
