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

// Package clustercursor implements the registry that owns the lifecycle of
// long-lived, paginated query cursors on a routing node: it hands out Pins
// that give exclusive access to a checked-out cursor, tracks per-namespace
// identity, and runs the two-phase kill/reap protocol that lets a cursor be
// killed while another caller still holds it pinned.
//
// The package knows nothing about query planning, index access, network
// framing, or snapshots; it only ever calls the small Cursor capability set
// below. See [github.com/documentdb-io/ccursor/internal/distinctscan] for a
// concrete (non-mock) Cursor implementation.
package clustercursor

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Document is a single BSON result document. It is opaque to the manager:
// the manager never inspects it, only moves it from Cursor.Advance to the
// caller of Pin.Next.
type Document = bson.Raw

// Cursor is the capability set the manager needs from an opaque,
// externally-supplied iterator over result documents.
//
// Advance produces the next result document, or ok == false if the cursor
// is exhausted. Kill is idempotent, infallible, and invoked at most once by
// the manager's reaper.
type Cursor interface {
	Advance(ctx context.Context) (doc Document, ok bool, err error)
	Kill(ctx context.Context)
}
