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

// Package snapshotmgr describes, as an interface only, the storage-engine
// contract a real cursor implementation would use to read from a stable
// point in time.
//
// The cluster cursor manager never calls any of this; it is a collaborator
// contract, included so [distinctscan] can accept an optional snapshot
// argument the way a real index-scan stage would require one, without
// pulling the snapshot/read-concern machinery itself into scope.
package snapshotmgr

// ID identifies a snapshot. Larger values compare as "later" than smaller
// ones; there is no other structure to the value.
type ID uint64

// Max returns an ID that compares greater than every other ID.
func Max() ID {
	return ID(^uint64(0))
}

// Manager manages snapshots that can be read from at a later time.
//
// Implementations must support concurrent calls to every method.
type Manager interface {
	// PrepareForSnapshot associates the calling transaction with a
	// point in time that a later CreateSnapshot call can name.
	PrepareForSnapshot() error

	// CreateSnapshot names the point in time captured by the most recent
	// PrepareForSnapshot call on this transaction. The caller guarantees
	// name compares greater than every previously created snapshot.
	CreateSnapshot(name ID) error

	// SetCommittedSnapshot advances the snapshot used for committed reads.
	// Implementations may assume older snapshots compare less than name and
	// newer ones compare greater.
	SetCommittedSnapshot(name ID)

	// DropAll drops every snapshot and clears the committed snapshot.
	DropAll()
}
