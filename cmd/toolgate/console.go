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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"toolgate/internal/config"
	"toolgate/internal/edit"
	"toolgate/internal/paths"
	"toolgate/internal/permissions"
	"toolgate/internal/shell"
	"toolgate/internal/tools"
)

// app bundles the wired components behind the console.
type app struct {
	permissions *permissions.Manager
	executor    *shell.Executor
	store       *shell.Store
	registry    *tools.Registry
	batch       *tools.BatchTool
	timeout     time.Duration
}

func newApp(cfg *config.Config, logger zerolog.Logger) *app {
	roots := make([]string, 0, len(cfg.AllowedPaths))
	for _, root := range cfg.AllowedPaths {
		roots = append(roots, paths.ExpandHome(root))
	}
	if len(roots) == 0 {
		if wd, err := os.Getwd(); err == nil {
			roots = []string{wd}
		}
	}
	perms := permissions.NewManager(roots...)

	executor := shell.NewExecutor(perms)
	executor.SetLogger(logger)
	executor.SetDefaultTimeout(cfg.DefaultTimeout())
	executor.Verbose = cfg.Debug
	for _, name := range cfg.DeniedCommands {
		executor.DenyCommand(name)
	}

	store := shell.NewStore()
	engine := edit.NewEngine(perms)

	registry := tools.NewRegistry()
	tools.RegisterBuiltIns(registry, executor, store, engine)
	batch := tools.NewBatchTool(registry)
	batch.SetLogger(logger)
	registry.Register(batch)

	return &app{
		permissions: perms,
		executor:    executor,
		store:       store,
		registry:    registry,
		batch:       batch,
		timeout:     cfg.DefaultTimeout(),
	}
}

func runConsole(cfg *config.Config, logger zerolog.Logger) {
	a := newApp(cfg, logger)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "❯ ",
		HistoryFile:     cfg.CommandHistoryFile,
		AutoComplete:    getCommandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize readline")
	}
	defer rl.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("Toolgate by Dyne.org")
		fmt.Printf("Allowed paths: %s\n", strings.Join(a.permissions.AllowedPaths(), ", "))
		fmt.Println("Type /help for commands, Ctrl+C or /quit to exit")
		fmt.Println()
	}

	ctx := context.Background()
	for {
		line, err := rl.Readline()
		if err != nil {
			logger.Debug().Msg("Readline interrupted")
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		logger.Info().Str("user_input", line).Msg("User input received")

		if strings.HasPrefix(line, "/") {
			if handleCommand(line, a, logger) {
				break
			}
			continue
		}

		result, err := a.executor.ExecuteCommand(ctx, line, a.timeout)
		if err != nil {
			// shell unavailable, nothing left to run
			logger.Error().Err(err).Msg("Execution environment broken")
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			break
		}
		output := result.FormatOutput(!result.IsSuccess())
		if output != "" {
			fmt.Println(output)
		}
	}

	logger.Info().Msg("Session ended")
}

// getCommandCompleter builds a readline completer from available commands
func getCommandCompleter() *readline.PrefixCompleter {
	commands := getAvailableCommands()
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem("/" + cmd.Name)
	}
	return readline.NewPrefixCompleter(items...)
}
