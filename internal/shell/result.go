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
	"fmt"
	"strings"
)

// CommandResult describes the outcome of one command. It is an immutable
// value: policy violations, timeouts and non-zero exits all arrive here as
// ordinary results, never as faults.
type CommandResult struct {
	ReturnCode   int
	Stdout       string
	Stderr       string
	ErrorMessage string
}

// IsSuccess reports whether the command exited zero with no layered error.
func (r CommandResult) IsSuccess() bool {
	return r.ReturnCode == 0 && r.ErrorMessage == ""
}

// FormatOutput renders the result for display: the exit code line (unless
// suppressed), stdout, and — only when something went wrong — an error line
// followed by stderr.
func (r CommandResult) FormatOutput(includeExitCode bool) string {
	var parts []string
	if includeExitCode {
		parts = append(parts, fmt.Sprintf("Exit code: %d", r.ReturnCode))
	}
	if r.Stdout != "" {
		parts = append(parts, r.Stdout)
	}
	if r.Stderr != "" || r.ErrorMessage != "" {
		parts = append(parts, fmt.Sprintf("Error: %s", r.ErrorMessage))
		if r.Stderr != "" {
			parts = append(parts, r.Stderr)
		}
	}
	return strings.Join(parts, "\n")
}
