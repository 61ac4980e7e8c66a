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

// Package tools holds the tool registry, the built-in tools wrapping the
// command executor and the edit engine, and the batch orchestrator that
// fans independent invocations out over the registry.
package tools

import "context"

// Tool represents a callable tool with validation and execution hooks.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Required() []string
	Validate(args map[string]interface{}) error
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// CallFunc is the function signature for tool implementations.
type CallFunc func(ctx context.Context, args map[string]interface{}) (string, error)

// ToolDefinition provides a default implementation of Tool.
type ToolDefinition struct {
	NameValue        string
	DescriptionValue string
	ParametersValue  map[string]interface{}
	RequiredValue    []string
	CallFunc         CallFunc
	ValidateFunc     func(args map[string]interface{}) error
}

func (t *ToolDefinition) Name() string {
	return t.NameValue
}

func (t *ToolDefinition) Description() string {
	return t.DescriptionValue
}

func (t *ToolDefinition) Parameters() map[string]interface{} {
	return t.ParametersValue
}

func (t *ToolDefinition) Required() []string {
	return t.RequiredValue
}

func (t *ToolDefinition) Validate(args map[string]interface{}) error {
	if t.ValidateFunc == nil {
		return nil
	}
	return t.ValidateFunc(args)
}

func (t *ToolDefinition) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.CallFunc == nil {
		return "", nil
	}
	return t.CallFunc(ctx, args)
}
