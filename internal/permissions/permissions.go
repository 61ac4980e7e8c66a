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

// Package permissions decides whether a filesystem path lies within an
// approved root. The manager holds an ordered set of allowed roots; a path
// is allowed iff its canonical form equals or descends from one of them.
package permissions

import (
	"sync"

	"toolgate/internal/paths"
)

const maxPathLength = 4096

// Manager guards filesystem access behind an allow-list of root
// directories. Reads vastly outnumber writes; the set is protected by an
// RWMutex and copied on read so callers never observe a mutation in flight.
type Manager struct {
	mu    sync.RWMutex
	roots []string
}

// NewManager creates a Manager with the given initial allowed roots.
// Roots that fail to canonicalize are skipped.
func NewManager(roots ...string) *Manager {
	m := &Manager{}
	for _, root := range roots {
		m.Allow(root)
	}
	return m
}

// Allow adds a root (and its entire subtree) to the allowed set.
func (m *Manager) Allow(path string) {
	canonical, err := paths.Canonicalize(path)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, root := range m.roots {
		if root == canonical {
			return
		}
	}
	m.roots = append(m.roots, canonical)
}

// Revoke removes a previously allowed root. Paths under other roots stay
// allowed.
func (m *Manager) Revoke(path string) {
	canonical, err := paths.Canonicalize(path)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.roots[:0]
	for _, root := range m.roots {
		if root != canonical {
			kept = append(kept, root)
		}
	}
	m.roots = kept
}

// IsPathAllowed reports whether path canonicalizes to a location equal to
// or below one of the allowed roots. It is a pure predicate: anything that
// fails validation or canonicalization is simply not allowed.
func (m *Manager) IsPathAllowed(path string) bool {
	if err := paths.ValidatePathString(path, maxPathLength); err != nil {
		return false
	}
	canonical, err := paths.Canonicalize(path)
	if err != nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, root := range m.roots {
		if paths.HasPathPrefix(canonical, root) {
			return true
		}
	}
	return false
}

// AllowedPaths returns a snapshot of the allowed roots in insertion order.
func (m *Manager) AllowedPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.roots...)
}
