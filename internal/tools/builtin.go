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
	"fmt"
	"time"

	"toolgate/internal/edit"
	"toolgate/internal/shell"
)

// RegisterBuiltIns wires the built-in tools over the given executor, session
// store and edit engine into the registry.
func RegisterBuiltIns(r *Registry, executor *shell.Executor, store *shell.Store, engine *edit.Engine) {
	r.Register(NewRunCommandTool(executor, store))
	r.Register(NewMultiEditTool(engine))
}

// NewRunCommandTool returns the run_command tool. Commands run in the
// executor's default session, or in a named persistent session from the
// store when session_id is given.
func NewRunCommandTool(executor *shell.Executor, store *shell.Store) Tool {
	return &ToolDefinition{
		NameValue:        "run_command",
		DescriptionValue: "Execute a shell command in a persistent session and return its output",
		ParametersValue: map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional persistent session to run in; state carries over between calls",
			},
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Wall-clock limit in seconds for this command",
			},
		},
		RequiredValue: []string{"command"},
		ValidateFunc:  RequireStringArg("command"),
		CallFunc: func(ctx context.Context, args map[string]interface{}) (string, error) {
			command, _ := args["command"].(string)

			session := executor.Session()
			if id, ok := args["session_id"].(string); ok && id != "" {
				session = store.GetOrCreate(id, "")
			}

			timeout, err := timeoutArg(args)
			if err != nil {
				return "", err
			}

			result, err := executor.ExecuteInSession(ctx, session, command, timeout)
			if err != nil {
				return "", err
			}
			if result.IsSuccess() {
				return result.Stdout, nil
			}
			return result.FormatOutput(true), nil
		},
	}
}

// NewMultiEditTool returns the multi_edit tool over the given engine.
func NewMultiEditTool(engine *edit.Engine) Tool {
	return &ToolDefinition{
		NameValue:        "multi_edit",
		DescriptionValue: "Apply a sequence of text edits to one file atomically; all edits succeed or the file is untouched",
		ParametersValue: map[string]interface{}{
			"file_path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to edit",
			},
			"edits": map[string]interface{}{
				"type":        "array",
				"description": "Edits applied in order, each with old_string, new_string and optional expected_replacements",
			},
		},
		RequiredValue: []string{"file_path", "edits"},
		ValidateFunc: ChainValidation(
			RequireStringArg("file_path"),
			RequireListArg("edits"),
		),
		CallFunc: func(ctx context.Context, args map[string]interface{}) (string, error) {
			filePath, _ := args["file_path"].(string)
			raw, _ := args["edits"].([]interface{})

			edits, err := edit.ParseEdits(raw)
			if err != nil {
				return "", err
			}
			return engine.Apply(filePath, edits)
		},
	}
}

// timeoutArg reads the optional timeout argument in seconds. Zero means
// the executor's default.
func timeoutArg(args map[string]interface{}) (time.Duration, error) {
	value, ok := args["timeout"]
	if !ok || value == nil {
		return 0, nil
	}
	var seconds float64
	switch v := value.(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	default:
		return 0, fmt.Errorf("Parameter 'timeout' must be a number")
	}
	if seconds < 0 {
		return 0, fmt.Errorf("Parameter 'timeout' must be a non-negative number")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
