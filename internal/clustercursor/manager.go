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
	"sync"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/documentdb-io/ccursor/internal/mongoerrors"
	"github.com/documentdb-io/ccursor/internal/util/must"
)

// Parts of the Prometheus metric names this package exposes.
const (
	metricsNamespace = "ccursor"
	metricsSubsystem = "cursors"
)

var (
	shardedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "sharded"),
		"Number of live cursors opened against a sharded namespace.",
		nil, nil,
	)
	notShardedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, metricsSubsystem, "not_sharded"),
		"Number of live cursors opened against a non-sharded namespace.",
		nil, nil,
	)
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// IdleTimeout is how long a Mortal cursor may sit idle (not pinned,
	// not killed) before ReapZombieCursors marks it killed too. Zero
	// disables idle-timeout reaping entirely; Immortal cursors are never
	// affected by it.
	IdleTimeout time.Duration
}

// Manager is the process-wide registry of live cursors: the Registry of
// this package's design. It owns one mutex guarding every Entry and the
// category counters.
//
//nolint:vet // field ordering chosen for readability, not alignment
type Manager struct {
	mu      sync.Mutex
	entries map[CursorID]*entry

	sharded    uint64
	notSharded uint64

	opts ManagerOptions

	l      *zap.Logger
	tracer trace.Tracer
}

// NewManager creates an empty Manager.
func NewManager(l *zap.Logger, opts ManagerOptions) *Manager {
	return &Manager{
		entries: map[CursorID]*entry{},
		opts:    opts,
		l:       l,
		tracer:  otel.Tracer("github.com/documentdb-io/ccursor/internal/clustercursor"),
	}
}

// Stats is a snapshot of the manager's category counters.
type Stats struct {
	CursorsSharded    uint64
	CursorsNotSharded uint64
}

// Stats returns the current live-cursor counts per category. A cursor
// contributes to its counter from RegisterCursor until the first of a
// successful KillCursor, a killAllCursors pass, or ReturnCursor(Exhausted).
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{CursorsSharded: m.sharded, CursorsNotSharded: m.notSharded}
}

// Describe implements prometheus.Collector.
func (m *Manager) Describe(ch chan<- *prometheus.Desc) {
	ch <- shardedDesc
	ch <- notShardedDesc
}

// Collect implements prometheus.Collector.
func (m *Manager) Collect(ch chan<- prometheus.Metric) {
	s := m.Stats()
	ch <- prometheus.MustNewConstMetric(shardedDesc, prometheus.GaugeValue, float64(s.CursorsSharded))
	ch <- prometheus.MustNewConstMetric(notShardedDesc, prometheus.GaugeValue, float64(s.CursorsNotSharded))
}

// check interfaces
var (
	_ prometheus.Collector = (*Manager)(nil)
)

// incrLocked increments the counter for category. Caller must hold m.mu.
func (m *Manager) incrLocked(category Category) {
	if category == Sharded {
		m.sharded++
	} else {
		m.notSharded++
	}
}

// decrLocked decrements the counter for category. Caller must hold m.mu.
func (m *Manager) decrLocked(category Category) {
	if category == Sharded {
		m.sharded--
	} else {
		m.notSharded--
	}
}

// RegisterCursor adopts cursor under the given namespace/category/lifetime
// and returns a Pin giving the caller exclusive access to it. It never
// fails for a valid, non-nil cursor.
func (m *Manager) RegisterCursor(ctx context.Context, cursor Cursor, ns Namespace, category Category, lifetime Lifetime) *Pin {
	must.BeTrue(cursor != nil, "clustercursor: RegisterCursor called with a nil cursor")

	_, span := m.tracer.Start(ctx, "clustercursor.Manager.RegisterCursor",
		trace.WithAttributes(attribute.String("namespace", string(ns))))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	id := nextID()
	for m.entries[id] != nil {
		id = nextID()
	}

	e := &entry{
		id:          id,
		namespace:   ns,
		category:    category,
		lifetime:    lifetime,
		pinned:      true,
		counted:     true,
		lastTouched: time.Now(),
	}
	m.entries[id] = e
	m.incrLocked(category)

	m.l.Debug("Registered cursor",
		zap.Int64("id", int64(id)), zap.String("namespace", string(ns)), zap.Stringer("category", category))

	return newPin(m, id, cursor)
}

// CheckOutCursor looks up the cursor registered under (ns, id) and, if it is
// idle (not pinned, not killed), returns a Pin giving exclusive access to
// it. It returns CursorNotFound if no such live entry exists, and
// CursorInUse if the entry exists but is currently pinned.
func (m *Manager) CheckOutCursor(ctx context.Context, ns Namespace, id CursorID) (*Pin, error) {
	_, span := m.tracer.Start(ctx, "clustercursor.Manager.CheckOutCursor",
		trace.WithAttributes(attribute.String("namespace", string(ns)), attribute.Int64("id", int64(id))))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[id]
	if e == nil || e.namespace != ns || e.killPending {
		return nil, mongoerrors.CursorNotFound(int64(id))
	}

	if e.pinned {
		return nil, mongoerrors.CursorInUse(int64(id))
	}

	cursor := e.cursor
	e.cursor = nil
	e.pinned = true
	e.lastTouched = time.Now()

	m.l.Debug("Checked out cursor", zap.Int64("id", int64(id)), zap.String("namespace", string(ns)))

	return newPin(m, id, cursor), nil
}

// KillCursor marks the entry registered under (ns, id) as killed. It
// returns CursorNotFound if no matching, not-yet-killed entry exists.
// Actual destruction is deferred to ReapZombieCursors; a cursor currently
// pinned by another caller is not touched until it is returned or reaped.
func (m *Manager) KillCursor(ctx context.Context, ns Namespace, id CursorID) error {
	_, span := m.tracer.Start(ctx, "clustercursor.Manager.KillCursor",
		trace.WithAttributes(attribute.String("namespace", string(ns)), attribute.Int64("id", int64(id))))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[id]
	if e == nil || e.namespace != ns || e.killPending {
		return mongoerrors.CursorNotFound(int64(id))
	}

	e.killPending = true
	if e.uncount() {
		m.decrLocked(e.category)
	}

	m.l.Debug("Killed cursor", zap.Int64("id", int64(id)), zap.String("namespace", string(ns)))

	return nil
}

// KillAllCursors marks every not-yet-killed entry as killed. It returns
// immediately; destruction happens in the next ReapZombieCursors call.
func (m *Manager) KillAllCursors(ctx context.Context) {
	_, span := m.tracer.Start(ctx, "clustercursor.Manager.KillAllCursors")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range maps.Values(m.entries) {
		if e.killPending {
			continue
		}

		e.killPending = true
		if e.uncount() {
			m.decrLocked(e.category)
		}
	}

	m.l.Debug("Marked all cursors killed", zap.Int("count", len(m.entries)))
}

// ReapZombieCursors destroys every zombie entry: one that is killed and not
// currently pinned. Pinned zombies are left alone; they are reaped on their
// next return. If the manager was configured with a positive IdleTimeout,
// this call first marks Mortal entries idle longer than that timeout as
// killed too, then reaps as usual in the same pass.
func (m *Manager) ReapZombieCursors(ctx context.Context) {
	_, span := m.tracer.Start(ctx, "clustercursor.Manager.ReapZombieCursors")
	defer span.End()

	m.mu.Lock()

	if m.opts.IdleTimeout > 0 {
		now := time.Now()

		for _, e := range maps.Values(m.entries) {
			if e.lifetime != Mortal || e.pinned || e.killPending {
				continue
			}

			if now.Sub(e.lastTouched) < m.opts.IdleTimeout {
				continue
			}

			e.killPending = true
			if e.uncount() {
				m.decrLocked(e.category)
			}
		}
	}

	var toKill []Cursor

	for id, e := range m.entries {
		if !e.reapable() {
			continue
		}

		toKill = append(toKill, e.cursor)
		e.cursor = nil
		delete(m.entries, id)
	}

	m.mu.Unlock()

	if len(toKill) > 0 {
		m.l.Debug("Reaping zombie cursors", zap.Int("count", len(toKill)))
	}

	for _, cursor := range toKill {
		cursor.Kill(ctx)
	}
}

// GetNamespaceForCursorID returns the namespace of the entry registered
// under id, regardless of its pinned or killed state, or nil if no entry
// with that id exists.
func (m *Manager) GetNamespaceForCursorID(id CursorID) *Namespace {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[id]
	if e == nil {
		return nil
	}

	return pointer.To(e.namespace)
}

// returnNotExhausted restores cursor to the entry registered under id and
// clears pinned. It is a no-op if the entry no longer exists (which cannot
// happen under correct Pin usage, since a pinned entry is never reaped).
func (m *Manager) returnNotExhausted(id CursorID, cursor Cursor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[id]
	if e == nil {
		return
	}

	e.cursor = cursor
	e.pinned = false
	e.lastTouched = time.Now()

	m.l.Debug("Returned cursor", zap.Int64("id", int64(id)), zap.Bool("exhausted", false))
}

// killAndReturn marks the entry registered under id killed and restores its
// cursor so the next ReapZombieCursors call destroys it; actual destruction
// always happens there, never on the caller's goroutine. It serves two
// callers: ReturnCursor(Exhausted), once the caller has drained the cursor
// to completion, and the implicit-kill path used when a Pin is dropped
// (Closed, or finalized) without an explicit ReturnCursor call.
func (m *Manager) killAndReturn(id CursorID, cursor Cursor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[id]
	if e == nil {
		return
	}

	e.cursor = cursor
	e.pinned = false

	if !e.killPending {
		e.killPending = true
		if e.uncount() {
			m.decrLocked(e.category)
		}
	}

	m.l.Debug("Marked cursor killed; deferred to reaper", zap.Int64("id", int64(id)))
}
