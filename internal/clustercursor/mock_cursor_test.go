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
)

// mockCursor is a Cursor test double that never produces real data: it just
// serves a fixed number of Advance calls before reporting exhaustion, and
// records whether Kill was called.
type mockCursor struct {
	mu sync.Mutex

	remaining int
	killed    bool
	killCount int
}

func newMockCursor(docs int) *mockCursor {
	return &mockCursor{remaining: docs}
}

func (c *mockCursor) Advance(context.Context) (Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remaining <= 0 {
		return nil, false, nil
	}

	c.remaining--

	return Document{}, true, nil
}

func (c *mockCursor) Kill(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.killed = true
	c.killCount++
}

func (c *mockCursor) wasKilled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.killed
}

func (c *mockCursor) numKills() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.killCount
}
