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

package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toolgate/internal/edit"
	"toolgate/internal/permissions"
	"toolgate/internal/shell"
)

func newBuiltinFixture(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	perms := permissions.NewManager(dir)
	executor := shell.NewExecutor(perms)
	store := shell.NewStore()
	engine := edit.NewEngine(perms)

	r := NewRegistry()
	RegisterBuiltIns(r, executor, store, engine)
	return r, dir
}

func TestRunCommandToolEcho(t *testing.T) {
	r, _ := newBuiltinFixture(t)
	tool, ok := r.Get("run_command")
	if !ok {
		t.Fatal("run_command not registered")
	}

	out, err := tool.Call(context.Background(), map[string]interface{}{
		"command": "echo hello world",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestRunCommandToolDenied(t *testing.T) {
	r, _ := newBuiltinFixture(t)
	tool, _ := r.Get("run_command")

	out, err := tool.Call(context.Background(), map[string]interface{}{
		"command": "rm -rf /tmp/anything",
	})
	if err != nil {
		t.Fatalf("denied command must be a result, not an error: %v", err)
	}
	if !strings.Contains(out, "Command not allowed") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestRunCommandToolSessionPersistence(t *testing.T) {
	r, _ := newBuiltinFixture(t)
	tool, _ := r.Get("run_command")
	ctx := context.Background()

	_, err := tool.Call(ctx, map[string]interface{}{
		"command":    "export BUILTIN_TEST_VAR=persisted",
		"session_id": "builtin-session",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := tool.Call(ctx, map[string]interface{}{
		"command":    "echo $BUILTIN_TEST_VAR",
		"session_id": "builtin-session",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "persisted") {
		t.Fatalf("session state lost: %s", out)
	}
}

func TestRunCommandToolFailureCarriesExitCode(t *testing.T) {
	r, _ := newBuiltinFixture(t)
	tool, _ := r.Get("run_command")

	out, err := tool.Call(context.Background(), map[string]interface{}{
		"command": "false",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Exit code: 1") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestRunCommandToolTimeoutArg(t *testing.T) {
	r, _ := newBuiltinFixture(t)
	tool, _ := r.Get("run_command")

	out, err := tool.Call(context.Background(), map[string]interface{}{
		"command": "sleep 5",
		"timeout": float64(0.1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Command timed out") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestMultiEditToolApplies(t *testing.T) {
	r, dir := newBuiltinFixture(t)
	tool, ok := r.Get("multi_edit")
	if !ok {
		t.Fatal("multi_edit not registered")
	}

	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("draft text"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	out, err := tool.Call(context.Background(), map[string]interface{}{
		"file_path": path,
		"edits": []interface{}{
			map[string]interface{}{"old_string": "draft", "new_string": "final"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Successfully applied 1 edits") {
		t.Fatalf("unexpected output: %s", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "final text" {
		t.Fatalf("unexpected content: %s", data)
	}
}

func TestMultiEditToolRejectsBadEdits(t *testing.T) {
	r, dir := newBuiltinFixture(t)
	tool, _ := r.Get("multi_edit")

	_, err := tool.Call(context.Background(), map[string]interface{}{
		"file_path": filepath.Join(dir, "any.txt"),
		"edits": []interface{}{
			map[string]interface{}{"old_string": "same", "new_string": "same"},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "identical") {
		t.Fatalf("expected identical-strings error, got: %v", err)
	}
}

func TestMultiEditToolValidate(t *testing.T) {
	r, _ := newBuiltinFixture(t)
	tool, _ := r.Get("multi_edit")

	err := tool.Validate(map[string]interface{}{"edits": []interface{}{"x"}})
	if err == nil || err.Error() != "Parameter 'file_path' is required but was None" {
		t.Fatalf("unexpected error: %v", err)
	}
	err = tool.Validate(map[string]interface{}{"file_path": "/tmp/x"})
	if err == nil || err.Error() != "Parameter 'edits' is required but was None" {
		t.Fatalf("unexpected error: %v", err)
	}
}
