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

package clustercursor

import (
	"math/rand/v2"
	"sync/atomic"
)

// CursorID identifies a cursor registered with a Manager. It is unique
// within the manager's lifetime; zero means "no cursor."
type CursorID int64

// lastCursorID is a process-wide monotonic counter, seeded with a random
// value at startup; nextID XORs each increment with a fresh random value.
// It is a variant of FerretDB's clientconn/cursor registry counter (there,
// keyed to uint32 and left sequential in debug builds; here XORed
// unconditionally, since this module has no debug-build notion of its own).
var lastCursorID atomic.Uint64

func init() {
	lastCursorID.Store(rand.Uint64())
}

// nextID returns a candidate cursor id. The caller (Manager.RegisterCursor,
// under the registry lock) is responsible for re-rolling on collision with
// an id already present in the registry.
func nextID() CursorID {
	var id int64

	for id == 0 {
		id = int64(lastCursorID.Add(1) ^ rand.Uint64())
	}

	return CursorID(id)
}
