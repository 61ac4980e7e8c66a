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
	"fmt"
	"strings"
)

// ValidationRule checks tool arguments and returns an error if invalid.
type ValidationRule func(args map[string]interface{}) error

// ChainValidation runs rules in order until the first error.
func ChainValidation(rules ...ValidationRule) ValidationRule {
	return func(args map[string]interface{}) error {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule(args); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireStringArg ensures a string argument is present and non-empty.
// Absent or nil yields the missing message; present but blank yields the
// empty message.
func RequireStringArg(key string) ValidationRule {
	return func(args map[string]interface{}) error {
		value, ok := args[key]
		if !ok || value == nil {
			return fmt.Errorf("Parameter '%s' is required but was None", key)
		}
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("Parameter '%s' must be a string", key)
		}
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("Parameter '%s' cannot be empty", key)
		}
		return nil
	}
}

// RequireListArg ensures a list argument is present and non-empty.
func RequireListArg(key string) ValidationRule {
	return func(args map[string]interface{}) error {
		value, ok := args[key]
		if !ok || value == nil {
			return fmt.Errorf("Parameter '%s' is required but was None", key)
		}
		list, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("Parameter '%s' must be an array", key)
		}
		if len(list) == 0 {
			return fmt.Errorf("Parameter '%s' cannot be empty", key)
		}
		return nil
	}
}
