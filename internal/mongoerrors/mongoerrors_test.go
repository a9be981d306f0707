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

package mongoerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.NotEmpty(t, Code(0).String())
	assert.Equal(t, "CursorNotFound", ErrCursorNotFound.String())
	assert.Equal(t, "CursorInUse", ErrCursorInUse.String())
	assert.Equal(t, "BadValue", ErrBadValue.String())
	assert.Equal(t, "InternalError", ErrInternalError.String())
}

func TestCursorNotFound(t *testing.T) {
	err := CursorNotFound(123)

	assert.Equal(t, int32(43), err.Code)
	assert.Equal(t, "CursorNotFound", err.Name)
	assert.Equal(t, "CursorNotFound (43): cursor id 123 not found", err.Error())
	assert.True(t, IsCursorNotFound(err))
	assert.False(t, IsCursorInUse(err))

	wrapped := fmt.Errorf("getMore: %w", err)
	assert.True(t, IsCursorNotFound(wrapped))

	assert.False(t, IsCursorNotFound(errors.New("boom")))
}

func TestCursorInUse(t *testing.T) {
	err := CursorInUse(7)

	assert.Equal(t, int32(61), err.Code)
	assert.Equal(t, "CursorInUse (61): cursor id 7 is already in use", err.Error())
	assert.True(t, IsCursorInUse(err))
	assert.False(t, IsCursorNotFound(err))
}

func TestGoString(t *testing.T) {
	err := CursorNotFound(5)

	expected := "&mongoerrors.Error{Code: 43, Name: `CursorNotFound`, " +
		"Message: `cursor id 5 not found`, Argument: `5`}"
	assert.Equal(t, expected, fmt.Sprintf("%#v", err))
}
