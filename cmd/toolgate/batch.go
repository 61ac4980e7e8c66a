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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"toolgate/internal/config"
)

// runBatchFile executes one batch request described by a JSON file with
// "description" and "invocations" fields, prints the report and exits
// non-zero on a malformed request.
func runBatchFile(path string, cfg *config.Config, logger zerolog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to read batch file")
	}

	var args map[string]interface{}
	if err := json.Unmarshal(data, &args); err != nil {
		logger.Fatal().Err(err).Msg("Batch file is not valid JSON")
	}

	a := newApp(cfg, logger)
	report, err := a.batch.Call(context.Background(), args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(report)
}
