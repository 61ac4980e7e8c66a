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
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// BatchTool runs several independent tool invocations concurrently over a
// registry and reports every outcome in request order. One failing
// invocation never aborts the others. The registry is treated read-only
// for the duration of a batch.
type BatchTool struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewBatchTool creates a batch orchestrator over the given registry.
func NewBatchTool(registry *Registry) *BatchTool {
	return &BatchTool{registry: registry, logger: zerolog.Nop()}
}

// SetLogger replaces the orchestrator's logger.
func (b *BatchTool) SetLogger(logger zerolog.Logger) {
	b.logger = logger
}

func (b *BatchTool) Name() string {
	return "batch"
}

func (b *BatchTool) Description() string {
	return "Run multiple independent tool invocations in parallel and collect every result"
}

func (b *BatchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"description": map[string]interface{}{
			"type":        "string",
			"description": "Short description of what this batch does",
		},
		"invocations": map[string]interface{}{
			"type":        "array",
			"description": "Invocations to run, each with tool_name and input",
		},
	}
}

func (b *BatchTool) Required() []string {
	return []string{"description", "invocations"}
}

// Validate rejects a malformed batch before any invocation runs.
func (b *BatchTool) Validate(args map[string]interface{}) error {
	return ChainValidation(
		RequireStringArg("description"),
		RequireListArg("invocations"),
	)(args)
}

type invocation struct {
	toolName string
	input    map[string]interface{}
	err      error
}

// Call validates the batch, fans every invocation out on its own
// goroutine and joins the results in request order. Panics and errors in
// one invocation become that invocation's entry and nothing else.
func (b *BatchTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	if err := b.Validate(args); err != nil {
		return "", err
	}

	description, _ := args["description"].(string)
	raw, _ := args["invocations"].([]interface{})
	invocations := parseInvocations(raw)

	results := make([]string, len(invocations))
	var wg sync.WaitGroup
	for i, inv := range invocations {
		wg.Add(1)
		go func(i int, inv invocation) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error().
						Str("tool", inv.toolName).
						Interface("panic", r).
						Msg("tool invocation panicked")
					results[i] = fmt.Sprintf("Error executing tool '%s': panic: %v", inv.toolName, r)
				}
			}()
			results[i] = b.runOne(ctx, inv)
		}(i, inv)
	}
	wg.Wait()

	var report strings.Builder
	fmt.Fprintf(&report, "Batch '%s': %d invocations\n", description, len(invocations))
	for i, inv := range invocations {
		fmt.Fprintf(&report, "\n[%d] %s:\n%s\n", i+1, inv.toolName, results[i])
	}
	return report.String(), nil
}

// runOne executes a single invocation and renders its outcome.
func (b *BatchTool) runOne(ctx context.Context, inv invocation) string {
	if inv.err != nil {
		return fmt.Sprintf("Error: %v", inv.err)
	}

	tool, ok := b.registry.Get(inv.toolName)
	if !ok {
		b.logger.Error().Str("tool", inv.toolName).Msg("batch invocation names unknown tool")
		return fmt.Sprintf("Tool '%s' not found", inv.toolName)
	}

	if err := tool.Validate(inv.input); err != nil {
		return fmt.Sprintf("Error executing tool '%s': %v", inv.toolName, err)
	}
	output, err := tool.Call(ctx, inv.input)
	if err != nil {
		b.logger.Error().Str("tool", inv.toolName).Err(err).Msg("batch invocation failed")
		return fmt.Sprintf("Error executing tool '%s': %v", inv.toolName, err)
	}
	return output
}

// parseInvocations decodes the loosely-typed invocation list. Malformed
// entries keep their slot so the report stays aligned with the request.
func parseInvocations(raw []interface{}) []invocation {
	invocations := make([]invocation, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			invocations[i] = invocation{err: fmt.Errorf("Invocation at index %d must be an object", i)}
			continue
		}
		name, ok := obj["tool_name"].(string)
		if !ok || name == "" {
			invocations[i] = invocation{err: fmt.Errorf("Parameter 'tool_name' in invocation at index %d is required but was None", i)}
			continue
		}
		input, _ := obj["input"].(map[string]interface{})
		if input == nil {
			input = map[string]interface{}{}
		}
		invocations[i] = invocation{toolName: name, input: input}
	}
	return invocations
}
