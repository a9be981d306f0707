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
	"context"
	"runtime"

	"github.com/documentdb-io/ccursor/internal/util/resource"
)

// ReturnState tells ReturnCursor whether the caller drained the cursor to
// exhaustion or is giving it back still live.
type ReturnState int

const (
	// NotExhausted returns the cursor to the registry for a later checkout.
	NotExhausted ReturnState = iota
	// Exhausted tells the registry the cursor is done; its entry is marked
	// killed and removed the next time the reaper runs.
	Exhausted
)

// Pin is exclusive access to a checked-out cursor. It is returned by
// Manager.RegisterCursor and Manager.CheckOutCursor, and must eventually be
// disposed of by exactly one of ReturnCursor or Close.
//
// A Pin has no Go analog of C++'s move-only destructor semantics, so it
// relies on a finalizer as a last-resort safety net: a Pin dropped without
// being returned or closed has its cursor killed the next time the garbage
// collector notices it unreachable. It is also [resource.Track]ed, so an
// outstanding Pin shows up in its type's pprof profile; unlike most tracked
// resources, a Pin's own finalizer (armed after Track's) supersedes
// resource's panic-on-drop one, trading the usual "this must never happen"
// assertion for a real recovery path. Relying on the finalizer in
// steady-state code is still a bug; always call Close or ReturnCursor
// explicitly.
type Pin struct {
	m      *Manager
	id     CursorID
	cursor Cursor
	token  *resource.Token
}

// newPin constructs a Pin owning cursor under id, tracks it, and arms its
// finalizer.
func newPin(m *Manager, id CursorID, cursor Cursor) *Pin {
	p := &Pin{
		m:      m,
		id:     id,
		cursor: cursor,
		token:  resource.NewToken(),
	}

	resource.Track(p, p.token)

	// overrides the finalizer Track just installed: a dropped Pin kills its
	// cursor instead of panicking.
	runtime.SetFinalizer(p, func(p *Pin) {
		p.killOnDrop()
	})

	return p
}

// GetCursorID returns the id of the pinned cursor, or zero for a
// default-constructed Pin.
func (p *Pin) GetCursorID() CursorID {
	if p == nil {
		return 0
	}

	return p.id
}

// Next advances the pinned cursor by one document. It panics if called on a
// Pin that has already been returned or closed.
func (p *Pin) Next(ctx context.Context) (Document, bool, error) {
	if p.cursor == nil {
		panic("clustercursor: Next called on a Pin that has already been disposed of")
	}

	return p.cursor.Advance(ctx)
}

// ReturnCursor gives the cursor back to the manager: either for a later
// checkout (NotExhausted), or marked killed for the reaper to destroy and
// remove (Exhausted). It never destroys the cursor itself. It is a no-op on
// a Pin that has already been disposed of or is default-constructed.
func (p *Pin) ReturnCursor(state ReturnState) {
	if p == nil || p.cursor == nil {
		return
	}

	cursor := p.cursor
	p.cursor = nil

	resource.Untrack(p, p.token)
	runtime.SetFinalizer(p, nil)

	if state == Exhausted {
		p.m.killAndReturn(p.id, cursor)

		return
	}

	p.m.returnNotExhausted(p.id, cursor)
}

// Close implements io.Closer: it kills the cursor and releases the pin
// without returning it for reuse. Prefer ReturnCursor(Exhausted) when the
// caller knows the cursor ran to completion; Close is for the abandon path.
func (p *Pin) Close() error {
	if p == nil || p.cursor == nil {
		return nil
	}

	p.killOnDrop()

	return nil
}

// killOnDrop is the shared teardown for Close and the finalizer: hand the
// cursor back to the manager marked killed, so the next reap pass destroys it.
func (p *Pin) killOnDrop() {
	if p.cursor == nil {
		return
	}

	cursor := p.cursor
	p.cursor = nil

	resource.Untrack(p, p.token)
	runtime.SetFinalizer(p, nil)

	p.m.killAndReturn(p.id, cursor)
}
