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

// Package distinctscan implements a single-field distinct scan: a cursor
// that walks an index-ordered set of entries and emits one document per
// distinct value of the indexed field, seeking past every entry that
// shares the current value instead of visiting it.
//
// It is a concrete, non-mock [clustercursor.Cursor]: something a Manager
// can register and reap exactly like any other cursor. It knows nothing
// about the manager itself; a caller wires the two together by passing a
// *Cursor to Manager.RegisterCursor.
package distinctscan

import (
	"bytes"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/documentdb-io/ccursor/internal/clustercursor"
	"github.com/documentdb-io/ccursor/internal/snapshotmgr"
	"github.com/documentdb-io/ccursor/internal/util/lazyerrors"
)

// Entry pairs a document with the already-extracted value of the field
// being distinct-scanned. A Cursor assumes entries are supplied in index
// order for the field (ascending for Direction 1, descending for -1): the
// same guarantee a real index's key ordering gives the storage engine.
type Entry struct {
	Key clustercursor.Document
	Doc clustercursor.Document
}

// FieldValue extracts field's value from doc as a BSON document of the
// shape {field: <value>}, suitable for use as an Entry's Key. A missing
// field is reported as BSON null, matching distinct's usual treatment of
// absent fields.
func FieldValue(doc clustercursor.Document, field string) (clustercursor.Document, error) {
	val, err := doc.LookupErr(field)
	if err != nil {
		null, marshalErr := bson.Marshal(bson.D{{Key: field, Value: nil}})
		if marshalErr != nil {
			return nil, lazyerrors.Errorf("distinctscan: marshal null key for %q: %w", field, marshalErr)
		}

		return null, nil
	}

	key, err := bson.Marshal(bson.D{{Key: field, Value: val}})
	if err != nil {
		return nil, lazyerrors.Errorf("distinctscan: marshal key for %q: %w", field, err)
	}

	return key, nil
}

// BuildEntries extracts field from each document and returns the Entry
// slice sorted into index order for direction (1 ascending, -1 descending)
// by the raw encoded bytes of the key. Byte ordering over encoded BSON
// values isn't a full type-aware comparison, but it is a stable total order
// good enough to exercise the scan; a real index does the equivalent
// comparison in its own key format.
func BuildEntries(docs []clustercursor.Document, field string, direction int) ([]Entry, error) {
	entries := make([]Entry, len(docs))

	for i, doc := range docs {
		key, err := FieldValue(doc, field)
		if err != nil {
			return nil, lazyerrors.Errorf("distinctscan: %w", err)
		}

		entries[i] = Entry{Key: key, Doc: doc}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		cmp := bytes.Compare(entries[i].Key, entries[j].Key)
		if direction < 0 {
			return cmp > 0
		}

		return cmp < 0
	})

	return entries, nil
}

// Cursor is a [clustercursor.Cursor] over a single-field distinct scan.
type Cursor struct {
	entries  []Entry
	pos      int
	killed   bool
	snapshot snapshotmgr.Manager
	prepared bool
	snapName snapshotmgr.ID
}

// New builds a Cursor over entries, which must already be in index order
// for direction (see BuildEntries). snapshot is optional: when non-nil, the
// cursor calls its PrepareForSnapshot once, before returning its first
// document, and Advance returns that call's error. Documents always come
// from entries; the cursor does not read through the snapshot.
func New(entries []Entry, direction int, snapshot snapshotmgr.Manager) *Cursor {
	return &Cursor{entries: entries, snapshot: snapshot}
}

// Advance returns the next distinct key's document, seeking past every
// following entry whose key equals the one just returned.
func (c *Cursor) Advance(ctx context.Context) (clustercursor.Document, bool, error) {
	if c.killed || c.pos >= len(c.entries) {
		return nil, false, nil
	}

	if err := c.ensureSnapshot(); err != nil {
		return nil, false, lazyerrors.Errorf("distinctscan: %w", err)
	}

	current := c.entries[c.pos].Key
	doc := c.entries[c.pos].Doc

	remaining := len(c.entries) - c.pos
	skip := sort.Search(remaining, func(i int) bool {
		return !bytes.Equal(c.entries[c.pos+i].Key, current)
	})
	c.pos += skip

	return doc, true, nil
}

// Kill marks the cursor exhausted; subsequent Advance calls report EOF.
// It is idempotent and never blocks, matching the capability
// [clustercursor.Cursor] requires.
func (c *Cursor) Kill(context.Context) {
	c.killed = true
}

func (c *Cursor) ensureSnapshot() error {
	if c.snapshot == nil || c.prepared {
		return nil
	}

	if err := c.snapshot.PrepareForSnapshot(); err != nil {
		return lazyerrors.Errorf("prepare snapshot: %w", err)
	}

	c.prepared = true
	c.snapName = snapshotmgr.Max()

	return nil
}
