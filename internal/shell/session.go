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

// Package shell runs command strings against a persistent session and
// reports each outcome as a CommandResult. Actual execution is delegated to
// the platform shell; this layer contributes the session state, the policy
// gate and the timeout wall.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	apperrors "toolgate/internal/errors"
)

// DefaultTimeout bounds commands that do not carry their own timeout.
const DefaultTimeout = 30 * time.Second

// shellBinary is the platform shell commands are delegated to.
const shellBinary = "bash"

// stateTrailer runs after the user command inside the same shell process
// and streams the final working directory and environment over fd 3, so
// cd/export effects survive into the next command. The user command's exit
// code is preserved.
const stateTrailer = `__tg_rc=$?; { pwd && printf '\0' && env -0; } >&3 2>/dev/null; exit $__tg_rc`

// Session is a persistent execution context: working directory and
// environment carry over from one command to the next. A session is not
// reentrant — commands that share its state must be serialized, which the
// internal mutex enforces by running them one at a time.
type Session struct {
	ID string

	mu           sync.Mutex
	workDir      string
	env          []string
	createdAt    time.Time
	lastAccessed time.Time
}

// NewSession creates a session rooted at workDir with the current process
// environment. An empty id is replaced with a fresh UUID; an empty workDir
// falls back to the process working directory.
func NewSession(id, workDir string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}
	now := time.Now()
	return &Session{
		ID:           id,
		workDir:      workDir,
		env:          os.Environ(),
		createdAt:    now,
		lastAccessed: now,
	}
}

// WorkDir returns the session's current working directory.
func (s *Session) WorkDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workDir
}

// Env returns a snapshot of the session environment.
func (s *Session) Env() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.env...)
}

// Setenv sets a variable in the session environment.
func (s *Session) Setenv(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := key + "=" + value
	for i, kv := range s.env {
		if strings.HasPrefix(kv, key+"=") {
			s.env[i] = entry
			return
		}
	}
	s.env = append(s.env, entry)
}

// LastAccessed returns the time of the most recent command on this session.
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Age returns how long the session has been idle.
func (s *Session) Age() time.Duration {
	return time.Since(s.LastAccessed())
}

// Run executes one command string in the session. The command is handed to
// the shell as a single argument, so embedded quotes reach it verbatim and
// variable references expand against the real session environment. When the
// timeout elapses first the whole process group is killed; the session state
// is simply not advanced and stays usable for the next command.
//
// The returned error is non-nil only for environment faults (the shell
// binary itself missing or unstartable). Everything else — non-zero exits,
// timeouts — lands in the CommandResult.
func (s *Session) Run(ctx context.Context, command string, timeout time.Duration) (CommandResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = time.Now()

	stateRead, stateWrite, err := os.Pipe()
	if err != nil {
		return CommandResult{}, apperrors.Wrap(apperrors.CodeEnvironment, "failed to allocate state pipe", err)
	}
	defer stateRead.Close()

	script := command + "\n" + stateTrailer
	cmd := exec.Command(shellBinary, "-c", script)
	cmd.Dir = s.workDir
	cmd.Env = append([]string{}, s.env...)
	cmd.ExtraFiles = []*os.File{stateWrite} // fd 3 inside the shell
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		stateWrite.Close()
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return CommandResult{}, apperrors.Wrap(apperrors.CodeEnvironment,
				fmt.Sprintf("shell %q is not available", shellBinary), err)
		}
		return CommandResult{}, apperrors.Wrap(apperrors.CodeEnvironment, "failed to start shell", err)
	}
	stateWrite.Close()

	stateCh := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(stateRead)
		stateCh <- data
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case waitErr := <-waitCh:
		s.applyState(<-stateCh)
		return CommandResult{
			ReturnCode: exitCode(waitErr),
			Stdout:     stdout.String(),
			Stderr:     stderr.String(),
		}, nil

	case <-ctx.Done():
		s.killGroup(cmd)
		<-waitCh
		<-stateCh
		return CommandResult{
			ReturnCode:   -1,
			Stdout:       stdout.String(),
			Stderr:       stderr.String(),
			ErrorMessage: "Command canceled",
		}, nil

	case <-timer.C:
		s.killGroup(cmd)
		<-waitCh
		<-stateCh
		return CommandResult{
			ReturnCode:   -1,
			Stdout:       stdout.String(),
			Stderr:       stderr.String(),
			ErrorMessage: fmt.Sprintf("Command timed out after %g seconds", timeout.Seconds()),
		}, nil
	}
}

// killGroup kills the shell and every child it spawned.
func (s *Session) killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid := cmd.Process.Pid
	if err := unix.Kill(-pgid, unix.SIGKILL); err != nil {
		// Process group already gone or never formed; fall back to the
		// direct child.
		_ = cmd.Process.Kill()
	}
}

// applyState parses the fd-3 trailer output and advances the session's
// working directory and environment. Truncated state (killed command) is
// discarded, leaving the previous state intact.
func (s *Session) applyState(raw []byte) {
	sep := bytes.IndexByte(raw, 0)
	if sep < 0 {
		return
	}
	dir := strings.TrimRight(string(raw[:sep]), "\n")
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.workDir = dir
		}
	}

	entries := bytes.Split(raw[sep+1:], []byte{0})
	env := make([]string, 0, len(entries))
	for _, entry := range entries {
		if len(entry) == 0 || !bytes.ContainsRune(entry, '=') {
			continue
		}
		env = append(env, string(entry))
	}
	if len(env) > 0 {
		s.env = env
	}
}

// exitCode extracts the shell's exit code from cmd.Wait's error.
func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
