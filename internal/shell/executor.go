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
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"toolgate/internal/permissions"
)

// DefaultExcludedCommands seeds every executor's denylist with commands
// whose base token is destructive enough to never run unattended.
var DefaultExcludedCommands = []string{
	"rm", "rmdir", "dd", "mkfs", "fdisk",
	"sudo", "su", "shutdown", "reboot", "halt", "poweroff",
}

// Executor runs command strings against one long-lived session, enforcing
// the command denylist and the per-call timeout. It never raises for
// ordinary failures: denied commands, timeouts and non-zero exits are all
// reported inside the CommandResult.
type Executor struct {
	Permissions *permissions.Manager
	Verbose     bool

	mu       sync.RWMutex
	excluded map[string]struct{}

	session        *Session
	defaultTimeout time.Duration
	logger         zerolog.Logger
}

// NewExecutor creates an executor with a fresh session and the default
// denylist.
func NewExecutor(perms *permissions.Manager) *Executor {
	excluded := make(map[string]struct{}, len(DefaultExcludedCommands))
	for _, name := range DefaultExcludedCommands {
		excluded[name] = struct{}{}
	}
	return &Executor{
		Permissions:    perms,
		excluded:       excluded,
		session:        NewSession("", ""),
		defaultTimeout: DefaultTimeout,
		logger:         zerolog.Nop(),
	}
}

// SetLogger installs a logger for debug-level command tracing.
func (e *Executor) SetLogger(logger zerolog.Logger) {
	e.logger = logger
}

// SetDefaultTimeout overrides the timeout used when a call passes none.
func (e *Executor) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		e.defaultTimeout = d
	}
}

// Session exposes the executor's persistent session.
func (e *Executor) Session() *Session {
	return e.session
}

// DenyCommand adds a base command to the runtime denylist.
func (e *Executor) DenyCommand(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.excluded[name] = struct{}{}
}

// ExcludedCommands returns a snapshot of the denylist.
func (e *Executor) ExcludedCommands() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.excluded))
	for name := range e.excluded {
		names = append(names, name)
	}
	return names
}

// IsCommandAllowed checks the command's own leading token against the
// denylist. Only the base command decides: a denylisted name appearing as
// an argument or in a later pipeline stage ("ls | grep test") does not
// deny. The check deliberately does not parse full shell grammar, so a
// denylisted command hidden behind ";", "&&" or a subshell is allowed;
// tightening that is a policy decision, not an oversight.
func (e *Executor) IsCommandAllowed(command string) bool {
	base := baseCommand(command)
	if base == "" {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, denied := e.excluded[base]
	return !denied
}

// ExecuteCommand runs one command in the persistent session. A denied
// command returns a failed result without spawning any process. The error
// return is reserved for environment faults (shell unavailable); policy
// violations and timeouts are recoverable results.
func (e *Executor) ExecuteCommand(ctx context.Context, command string, timeout time.Duration) (CommandResult, error) {
	return e.ExecuteInSession(ctx, e.session, command, timeout)
}

// ExecuteInSession runs one command in the given session under the same
// policy checks as ExecuteCommand.
func (e *Executor) ExecuteInSession(ctx context.Context, session *Session, command string, timeout time.Duration) (CommandResult, error) {
	if !e.IsCommandAllowed(command) {
		e.logger.Debug().Str("command", command).Msg("command denied by policy")
		return CommandResult{
			ReturnCode:   1,
			ErrorMessage: "Command not allowed: " + baseCommand(command),
		}, nil
	}

	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	result, err := session.Run(ctx, command, timeout)
	if err != nil {
		return result, err
	}
	if e.Verbose || !result.IsSuccess() {
		e.logger.Debug().
			Str("command", command).
			Int("exit_code", result.ReturnCode).
			Str("error", result.ErrorMessage).
			Msg("command finished")
	}
	return result, nil
}

// baseCommand extracts the leading executable token, stripping any path
// prefix and the backslash alias-bypass.
func baseCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	base := filepath.Base(fields[0])
	return strings.TrimPrefix(base, `\`)
}
