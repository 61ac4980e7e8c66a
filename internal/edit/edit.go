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

// Package edit applies an ordered sequence of exact-match substring
// replacements to one file as a single transaction: every edit succeeds and
// the file is written once, or nothing is written and the error names the
// first failing edit.
package edit

import (
	"fmt"
	"strings"
)

// Edit is one exact-match replacement. ExpectedReplacements, when set,
// pins how many occurrences of OldString must exist at apply time.
type Edit struct {
	OldString            string
	NewString            string
	ExpectedReplacements *int
}

// ParseEdits converts loosely-typed edit entries (as decoded from JSON)
// into typed Edits, enforcing the well-formedness rules in order with the
// first violation winning. Indexes in messages are zero-based, matching
// the position in the input slice.
func ParseEdits(raw []interface{}) ([]Edit, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("Parameter 'edits' cannot be empty")
	}

	edits := make([]Edit, 0, len(raw))
	for i, entry := range raw {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("Edit at index %d must be an object", i)
		}

		oldStr, err := requiredString(obj, "old_string", i)
		if err != nil {
			return nil, err
		}
		newStr, err := requiredString(obj, "new_string", i)
		if err != nil {
			return nil, err
		}
		if oldStr == newStr {
			return nil, fmt.Errorf("Edit at index %d: old_string and new_string are identical", i)
		}

		edit := Edit{OldString: oldStr, NewString: newStr}
		if rawExpected, present := obj["expected_replacements"]; present && rawExpected != nil {
			expected, ok := asNonNegativeInt(rawExpected)
			if !ok {
				return nil, fmt.Errorf("Parameter 'expected_replacements' in edit at index %d must be a non-negative number", i)
			}
			edit.ExpectedReplacements = &expected
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

func requiredString(obj map[string]interface{}, key string, index int) (string, error) {
	raw, present := obj[key]
	if !present || raw == nil {
		return "", fmt.Errorf("Parameter '%s' in edit at index %d is required but was None", key, index)
	}
	str, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("Parameter '%s' in edit at index %d must be a string", key, index)
	}
	return str, nil
}

func asNonNegativeInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return v, true
	case float64:
		if v < 0 || v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

// validateEdits re-checks invariants on typed edits so callers that build
// Edits directly get the same validation pass as parsed input.
func validateEdits(edits []Edit) error {
	if len(edits) == 0 {
		return fmt.Errorf("Parameter 'edits' cannot be empty")
	}
	for i, e := range edits {
		if e.OldString == e.NewString {
			return fmt.Errorf("Edit at index %d: old_string and new_string are identical", i)
		}
		if e.ExpectedReplacements != nil && *e.ExpectedReplacements < 0 {
			return fmt.Errorf("Parameter 'expected_replacements' in edit at index %d must be a non-negative number", i)
		}
	}
	return nil
}

// applyToBuffer runs the edits strictly in order against content, each one
// seeing the buffer left by the previous edit. It returns the final buffer
// and the total number of replacements. Indexes in errors are one-based.
func applyToBuffer(content string, edits []Edit) (string, int, error) {
	buffer := content
	total := 0
	for i, e := range edits {
		index := i + 1

		if e.OldString == "" {
			if buffer != "" {
				return "", 0, fmt.Errorf("Edit %d: old_string is empty but the file already has content", index)
			}
			buffer = e.NewString
			total++
			continue
		}

		count := strings.Count(buffer, e.OldString)
		if count == 0 {
			return "", 0, fmt.Errorf("Edit %d: The specified old_string was not found in the file", index)
		}
		if e.ExpectedReplacements != nil && *e.ExpectedReplacements != count {
			return "", 0, fmt.Errorf("Edit %d: Found %d occurrences of the specified old_string, but expected %d",
				index, count, *e.ExpectedReplacements)
		}
		buffer = strings.ReplaceAll(buffer, e.OldString, e.NewString)
		total += count
	}
	return buffer, total, nil
}
