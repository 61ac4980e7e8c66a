// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package shell

import (
	"sync"
	"time"
)

// Store is an explicit registry of sessions keyed by id. It is passed by
// reference to whoever needs session routing — never reached through global
// state — so init and teardown stay deterministic.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for id, if present.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Set registers a session under id, replacing any previous one.
func (st *Store) Set(id string, s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = s
}

// GetOrCreate returns the session for id, creating and registering a new
// one rooted at workDir when absent.
func (st *Store) GetOrCreate(id, workDir string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := NewSession(id, workDir)
	st.sessions[s.ID] = s
	return s
}

// Delete removes the session for id.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// ClearAll removes every session and returns how many were dropped.
func (st *Store) ClearAll() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := len(st.sessions)
	st.sessions = make(map[string]*Session)
	return n
}

// CleanupExpired drops sessions idle longer than maxAge and returns how
// many were removed.
func (st *Store) CleanupExpired(maxAge time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if time.Since(s.LastAccessed()) > maxAge {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
