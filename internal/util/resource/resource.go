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

// Package resource helps find leaked objects — cursors and pins that were
// never closed/returned and are only reclaimed, if ever, by the garbage
// collector.
//
// Every tracked object gets an entry in a per-type pprof profile (inspectable
// with `go tool pprof`) and a finalizer that panics if the object is
// collected while still tracked. Call [Untrack] on every successful,
// cooperative release path; anything left tracked when the GC runs is, by
// definition, a leak.
package resource

import (
	"fmt"
	"runtime"
	"runtime/pprof"
	"sync"

	"github.com/google/uuid"
)

// Token is an opaque per-object handle recording whether the object has been
// untracked yet.
type Token struct {
	id      string
	cleanup func()
}

// NewToken returns a new Token.
func NewToken() *Token {
	return &Token{id: uuid.NewString()}
}

var (
	profilesMu sync.Mutex
	profiles   = map[string]*pprof.Profile{}
)

// profileName returns the pprof profile name used for obj's dynamic type.
func profileName(obj any) string {
	return fmt.Sprintf("resource.%T", obj)
}

// profileFor returns (creating on first use) the shared profile for obj's type.
func profileFor(obj any) *pprof.Profile {
	name := profileName(obj)

	profilesMu.Lock()
	defer profilesMu.Unlock()

	p := profiles[name]
	if p == nil {
		p = pprof.NewProfile(name)
		profiles[name] = p
	}

	return p
}

// Track registers obj as alive under token. Untrack must be called on every
// release path, or the finalizer set up here will panic once obj is
// collected.
func Track(obj any, token *Token) {
	// the profile and the cleanup hold only the token and the type name, never
	// obj itself, so that obj can become unreachable and be finalized
	profileFor(obj).Add(token, 2)

	name := fmt.Sprintf("%T", obj)
	token.cleanup = func() {
		panic(fmt.Sprintf("%s has not been finalized; Untrack was never called", name))
	}

	runtime.SetFinalizer(obj, func(any) {
		if cleanup := token.cleanup; cleanup != nil {
			cleanup()
		}
	})
}

// Untrack removes obj from tracking. It is safe to call even if obj was
// never tracked.
func Untrack(obj any, token *Token) {
	profileFor(obj).Remove(token)
	token.cleanup = nil
	runtime.SetFinalizer(obj, nil)
}
