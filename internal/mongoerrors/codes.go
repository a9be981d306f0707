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

// Code is a MongoDB wire protocol error code.
//
// Only the subset the cluster cursor manager can originate is named here;
// everything this package's callers forward from elsewhere keeps its own
// code.
type Code int32

// Error codes the manager itself can originate, matching MongoDB's own
// numbering so clients that understand the wire protocol need no
// translation layer.
const (
	ErrInternalError  Code = 1
	ErrBadValue       Code = 2
	ErrCursorNotFound Code = 43
	ErrCursorInUse    Code = 61
)

// String returns the canonical MongoDB error name for the code.
func (c Code) String() string {
	switch c {
	case ErrInternalError:
		return "InternalError"
	case ErrBadValue:
		return "BadValue"
	case ErrCursorNotFound:
		return "CursorNotFound"
	case ErrCursorInUse:
		return "CursorInUse"
	default:
		return "Error"
	}
}
