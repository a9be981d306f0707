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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/documentdb-io/ccursor/internal/mongoerrors"
	"github.com/documentdb-io/ccursor/internal/util/testutil"
)

func TestPinDefaultConstructor(t *testing.T) {
	t.Parallel()

	var pin *Pin

	assert.Zero(t, pin.GetCursorID())
	assert.NotPanics(t, func() { pin.ReturnCursor(Exhausted) })
	assert.NoError(t, pin.Close())
}

func TestPinNextAdvances(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := testutil.Ctx(t)

	cursor := newMockCursor(2)
	pin := m.RegisterCursor(ctx, cursor, "db.coll", NotSharded, Mortal)

	_, ok, err := pin.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = pin.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = pin.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	pin.ReturnCursor(Exhausted)
}

func TestPinReturnCursorNotExhausted(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := testutil.Ctx(t)

	cursor := newMockCursor(0)
	pin := m.RegisterCursor(ctx, cursor, "db.coll", NotSharded, Mortal)
	id := pin.GetCursorID()

	pin.ReturnCursor(NotExhausted)
	assert.False(t, cursor.wasKilled())

	got, err := m.CheckOutCursor(ctx, "db.coll", id)
	require.NoError(t, err)
	got.ReturnCursor(Exhausted)
}

func TestPinReturnCursorExhausted(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := testutil.Ctx(t)

	cursor := newMockCursor(0)
	pin := m.RegisterCursor(ctx, cursor, "db.coll", NotSharded, Mortal)
	id := pin.GetCursorID()

	pin.ReturnCursor(Exhausted)
	assert.False(t, cursor.wasKilled(), "ReturnCursor defers actual destruction to the reaper")

	_, err := m.CheckOutCursor(ctx, "db.coll", id)
	require.Error(t, err)
	assert.True(t, mongoerrors.IsCursorNotFound(err))

	m.ReapZombieCursors(ctx)
	assert.True(t, cursor.wasKilled())
}

func TestPinReturnCursorIsIdempotent(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := testutil.Ctx(t)

	cursor := newMockCursor(0)
	pin := m.RegisterCursor(ctx, cursor, "db.coll", NotSharded, Mortal)

	pin.ReturnCursor(Exhausted)
	pin.ReturnCursor(Exhausted)
	pin.ReturnCursor(NotExhausted)

	m.ReapZombieCursors(ctx)
	assert.Equal(t, 1, cursor.numKills(), "a disposed Pin ignores further ReturnCursor calls")
}

func TestPinCloseKillsWithoutExplicitReturn(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := testutil.Ctx(t)

	cursor := newMockCursor(0)
	pin := m.RegisterCursor(ctx, cursor, "db.coll", NotSharded, Mortal)
	id := pin.GetCursorID()

	require.NoError(t, pin.Close())
	assert.Equal(t, Stats{}, m.Stats())
	assert.False(t, cursor.wasKilled(), "Close defers actual destruction to the reaper")

	m.ReapZombieCursors(ctx)
	assert.True(t, cursor.wasKilled())

	_, err := m.CheckOutCursor(ctx, "db.coll", id)
	require.Error(t, err)
	assert.True(t, mongoerrors.IsCursorNotFound(err))
}

func TestPinCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	ctx := testutil.Ctx(t)

	cursor := newMockCursor(0)
	pin := m.RegisterCursor(ctx, cursor, "db.coll", NotSharded, Mortal)

	require.NoError(t, pin.Close())
	require.NoError(t, pin.Close())

	m.ReapZombieCursors(ctx)
	assert.Equal(t, 1, cursor.numKills())
}
