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

package permissions

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestIsPathAllowedWithinRoot(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)

	if !mgr.IsPathAllowed(root) {
		t.Fatal("expected the root itself to be allowed")
	}
	if !mgr.IsPathAllowed(filepath.Join(root, "sub", "file.txt")) {
		t.Fatal("expected descendant path to be allowed")
	}
}

func TestIsPathAllowedOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	mgr := NewManager(root)

	if mgr.IsPathAllowed(other) {
		t.Fatal("expected unrelated path to be denied")
	}
	if mgr.IsPathAllowed(filepath.Join(root, "..", "escape.txt")) {
		t.Fatal("expected .. escape to be denied")
	}
	if mgr.IsPathAllowed("") {
		t.Fatal("expected empty path to be denied")
	}
}

func TestIsPathAllowedSiblingPrefix(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "work")
	sibling := filepath.Join(base, "workspace")
	for _, dir := range []string{root, sibling} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}

	mgr := NewManager(root)
	if mgr.IsPathAllowed(filepath.Join(sibling, "f.txt")) {
		t.Fatal("expected sibling sharing a string prefix to be denied")
	}
}

func TestRevoke(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)

	mgr.Revoke(root)
	if mgr.IsPathAllowed(filepath.Join(root, "file.txt")) {
		t.Fatal("expected path to be denied after revoke")
	}
	if len(mgr.AllowedPaths()) != 0 {
		t.Fatalf("expected empty root set, got %v", mgr.AllowedPaths())
	}
}

func TestAllowIsIdempotent(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(root)
	mgr.Allow(root)
	mgr.Allow(root)

	if got := len(mgr.AllowedPaths()); got != 1 {
		t.Fatalf("expected a single root entry, got %d", got)
	}
}

func TestConcurrentReadsDuringMutation(t *testing.T) {
	root := t.TempDir()
	extra := t.TempDir()
	mgr := NewManager(root)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mgr.IsPathAllowed(filepath.Join(root, "f.txt"))
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				mgr.Allow(extra)
				mgr.Revoke(extra)
			}
		}()
	}
	wg.Wait()

	if !mgr.IsPathAllowed(filepath.Join(root, "f.txt")) {
		t.Fatal("expected original root to survive concurrent mutation")
	}
}
