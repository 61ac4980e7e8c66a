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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toolgate/internal/permissions"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return NewExecutor(permissions.NewManager(t.TempDir()))
}

func TestIsCommandAllowed(t *testing.T) {
	executor := newTestExecutor(t)

	if !executor.IsCommandAllowed("echo Hello") {
		t.Fatal("expected plain echo to be allowed")
	}
	if executor.IsCommandAllowed("rm -rf /") {
		t.Fatal("expected denylisted base command to be denied")
	}
	if !executor.IsCommandAllowed("ls | grep test") {
		t.Fatal("expected denylisted token in a pipeline stage to be allowed")
	}
	if executor.IsCommandAllowed("") {
		t.Fatal("expected empty command to be denied")
	}
	if executor.IsCommandAllowed("/bin/rm file.txt") {
		t.Fatal("expected path-prefixed denylisted command to be denied")
	}
	if !executor.IsCommandAllowed("echo rm") {
		t.Fatal("expected denylisted token as argument to be allowed")
	}
}

func TestDenyCommand(t *testing.T) {
	executor := newTestExecutor(t)

	if !executor.IsCommandAllowed("custom_command --flag") {
		t.Fatal("expected unknown command to be allowed before deny")
	}
	executor.DenyCommand("custom_command")
	if executor.IsCommandAllowed("custom_command --flag") {
		t.Fatal("expected command to be denied after DenyCommand")
	}

	found := false
	for _, name := range executor.ExcludedCommands() {
		if name == "custom_command" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected custom_command in the excluded set")
	}
}

func TestExecuteCommandNotAllowed(t *testing.T) {
	executor := newTestExecutor(t)

	result, err := executor.ExecuteCommand(context.Background(), "rm test.txt", 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if result.IsSuccess() {
		t.Fatal("expected denied command to fail")
	}
	if !strings.Contains(result.ErrorMessage, "Command not allowed") {
		t.Fatalf("expected policy message, got: %s", result.ErrorMessage)
	}
}

func TestExecuteCommandAllowed(t *testing.T) {
	executor := newTestExecutor(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "test_exec.txt")
	if err := os.WriteFile(file, []byte("test content"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	result, err := executor.ExecuteCommand(context.Background(), `\cat `+file, 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, got exit %d stderr %q", result.ReturnCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "test content") {
		t.Fatalf("expected file content in stdout, got: %s", result.Stdout)
	}
	if result.Stderr != "" {
		t.Fatalf("expected empty stderr, got: %s", result.Stderr)
	}
}

func TestExecuteCommandWithCd(t *testing.T) {
	executor := newTestExecutor(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "test_exec.txt")
	if err := os.WriteFile(file, []byte("test content"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	result, err := executor.ExecuteCommand(context.Background(), "cd "+dir+` && \cat test_exec.txt`, 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, got exit %d stderr %q", result.ReturnCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "test content") {
		t.Fatalf("expected file content in stdout, got: %s", result.Stdout)
	}
}

func TestExecuteCommandWithNonexistentCd(t *testing.T) {
	executor := newTestExecutor(t)

	result, err := executor.ExecuteCommand(context.Background(), "cd /nonexistent/dir && ls", 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if result.IsSuccess() {
		t.Fatal("expected cd to a missing directory to fail")
	}
	if result.ReturnCode == 0 {
		t.Fatal("expected non-zero return code from the shell")
	}
}

func TestExecuteCommandTimeout(t *testing.T) {
	executor := newTestExecutor(t)

	result, err := executor.ExecuteCommand(context.Background(), "sleep 5", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if result.IsSuccess() {
		t.Fatal("expected timed-out command to fail")
	}
	if !strings.Contains(result.ErrorMessage, "Command timed out") {
		t.Fatalf("expected timeout message, got: %s", result.ErrorMessage)
	}

	// The session must survive the kill and accept further commands.
	result, err = executor.ExecuteCommand(context.Background(), "echo recovered", 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if !result.IsSuccess() || !strings.Contains(result.Stdout, "recovered") {
		t.Fatalf("expected session to stay usable after timeout, got: %+v", result)
	}
}

func TestExecuteCommandQuotes(t *testing.T) {
	executor := newTestExecutor(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "quote_test.txt")
	if err := os.WriteFile(file, []byte("file_path=\"/test/path\"\nother_line\n"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	result, err := executor.ExecuteCommand(context.Background(), `grep -A1 'file_path="' `+file, 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, stderr: %s", result.Stderr)
	}
	if !strings.Contains(result.Stdout, `file_path="/test/path"`) {
		t.Fatalf("expected embedded quotes preserved, got: %s", result.Stdout)
	}
	if !strings.Contains(result.Stdout, "other_line") {
		t.Fatalf("expected -A1 context line, got: %s", result.Stdout)
	}
}

func TestExecuteCommandEnvExpansion(t *testing.T) {
	executor := newTestExecutor(t)

	result, err := executor.ExecuteCommand(context.Background(), "echo $PATH", 0)
	if err != nil {
		t.Fatalf("unexpected environment error: %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, stderr: %s", result.Stderr)
	}
	if !strings.Contains(result.Stdout, ":") {
		t.Fatalf("expected expanded PATH with separators, got: %s", result.Stdout)
	}
	if strings.TrimSpace(result.Stdout) == "$PATH" {
		t.Fatal("expected variable expansion, got the literal token")
	}
}
