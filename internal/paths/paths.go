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

package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ValidatePathString validates raw path input before resolution.
func ValidatePathString(path string, maxLen int) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.IndexByte(path, 0) != -1 {
		return fmt.Errorf("path contains null byte")
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("path is not valid UTF-8")
	}
	if maxLen > 0 && len(path) > maxLen {
		return fmt.Errorf("path exceeds maximum length of %d characters", maxLen)
	}
	return nil
}

// ExpandHome replaces a leading "~/" or a bare "~" with the user's home
// directory. Returns path unchanged when it does not start with "~".
func ExpandHome(path string) string {
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Canonicalize turns a path into an absolute, cleaned, symlink-resolved
// form. A path whose final element does not exist yet is still resolved:
// symlinks are evaluated on the deepest existing ancestor and the missing
// tail is re-joined, so a file about to be created canonicalizes the same
// way it will once written.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return "", fmt.Errorf("invalid path: %v", err)
	}
	abs = filepath.Clean(abs)

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to resolve path: %v", err)
	}

	// Walk up to the deepest existing ancestor, resolve it, then re-join
	// the missing components.
	var tail []string
	current := abs
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		tail = append(tail, filepath.Base(current))
		current = parent
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %v", err)
		}
	}
}

// HasPathPrefix returns true when path equals base or descends from it.
func HasPathPrefix(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}
