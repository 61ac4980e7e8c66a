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

package edit

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "toolgate/internal/errors"
	"toolgate/internal/permissions"
)

const maxFileSizeBytes int64 = 10 * 1024 * 1024

// Engine applies multi-edit requests to files under permission-approved
// roots. Validation and application run synchronously over one in-memory
// buffer; the result reaches disk through a single atomic rename, so a
// concurrent reader never observes a partial write.
type Engine struct {
	permissions *permissions.Manager
}

// NewEngine creates an engine gated by the given permission manager.
func NewEngine(perms *permissions.Manager) *Engine {
	return &Engine{permissions: perms}
}

// Apply runs the edits against filePath as one transaction and returns a
// human-readable report. On any failure the file on disk is untouched and
// the error names the first failing edit. Paths outside the approved roots
// are rejected before validation begins.
func (e *Engine) Apply(filePath string, edits []Edit) (string, error) {
	if !e.permissions.IsPathAllowed(filePath) {
		return "", apperrors.Newf(apperrors.CodePolicy, "Access to path %q is not allowed", filePath)
	}
	if err := validateEdits(edits); err != nil {
		return "", apperrors.Wrap(apperrors.CodeValidation, "", err)
	}

	content, existed, mode, err := readCurrent(filePath)
	if err != nil {
		return "", err
	}
	if !existed && edits[0].OldString != "" {
		return "", apperrors.Newf(apperrors.CodeExecution, "File does not exist: %s", filePath)
	}

	updated, total, err := applyToBuffer(content, edits)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeValidation, "", err)
	}
	if int64(len(updated)) > maxFileSizeBytes {
		return "", apperrors.Newf(apperrors.CodeExecution, "updated file exceeds maximum size of %d bytes", maxFileSizeBytes)
	}

	if err := writeAtomic(filePath, []byte(updated), mode); err != nil {
		return "", err
	}

	if !existed {
		return fmt.Sprintf("Successfully created file: %s", filePath), nil
	}
	return fmt.Sprintf("Successfully applied %d edits to %s (%d total replacements)",
		len(edits), filePath, total), nil
}

// readCurrent loads the file content, reporting whether the file existed
// and with which permission bits.
func readCurrent(filePath string) (content string, existed bool, mode os.FileMode, err error) {
	mode = 0o644
	info, statErr := os.Stat(filePath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return "", false, mode, nil
		}
		return "", false, mode, apperrors.Wrap(apperrors.CodeExecution, "failed to stat file", statErr)
	}
	if info.IsDir() {
		return "", false, mode, apperrors.Newf(apperrors.CodeExecution, "Path is a directory: %s", filePath)
	}
	if info.Size() > maxFileSizeBytes {
		return "", false, mode, apperrors.Newf(apperrors.CodeExecution, "file exceeds maximum size of %d bytes", maxFileSizeBytes)
	}
	data, readErr := os.ReadFile(filePath)
	if readErr != nil {
		return "", false, mode, apperrors.Wrap(apperrors.CodeExecution, "failed to read file", readErr)
	}
	return string(data), true, info.Mode().Perm(), nil
}

// writeAtomic writes data through a temp file in the target directory and
// renames it over the destination in one step.
func writeAtomic(filePath string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.CodeExecution, "failed to create parent directories", err)
	}

	tmp, err := os.CreateTemp(dir, ".multiedit-*")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeExecution, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.CodeExecution, "failed to write temp file", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.CodeExecution, "failed to set file mode", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeExecution, "failed to close temp file", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return apperrors.Wrap(apperrors.CodeExecution, "failed to replace file", err)
	}
	return nil
}
