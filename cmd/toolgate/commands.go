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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"toolgate/internal/paths"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

// getAvailableCommands returns the list of all slash commands
func getAvailableCommands() []Command {
	return []Command{
		{Name: "help", Description: "Show available commands"},
		{Name: "allow", Description: "Allow access to a path: /allow <path>"},
		{Name: "deny", Description: "Add a command to the denylist: /deny <name>"},
		{Name: "denied", Description: "Show the command denylist"},
		{Name: "timeout", Description: "Set the default timeout: /timeout <seconds>"},
		{Name: "sessions", Description: "List active shell sessions"},
		{Name: "tools", Description: "List registered tools"},
		{Name: "quit", Description: "Exit the application"},
		{Name: "exit", Description: "Exit the application"},
	}
}

// handleCommand processes slash commands, returns true if should quit
func handleCommand(input string, a *app, logger zerolog.Logger) bool {
	name, arg := splitCommand(input)

	logger.Debug().Str("command", name).Str("arg", arg).Msg("Executing command")

	switch name {
	case "help":
		showHelp()
		return false

	case "allow":
		if arg == "" {
			fmt.Println("Usage: /allow <path>")
			return false
		}
		a.permissions.Allow(paths.ExpandHome(arg))
		fmt.Printf("✓ Path allowed: %s\n", arg)
		return false

	case "deny":
		if arg == "" {
			fmt.Println("Usage: /deny <name>")
			return false
		}
		a.executor.DenyCommand(arg)
		fmt.Printf("✓ Command denied: %s\n", arg)
		return false

	case "denied":
		for _, name := range a.executor.ExcludedCommands() {
			fmt.Printf("  %s\n", name)
		}
		return false

	case "timeout":
		seconds, err := strconv.Atoi(arg)
		if err != nil || seconds <= 0 {
			fmt.Println("Usage: /timeout <seconds>")
			return false
		}
		a.timeout = time.Duration(seconds) * time.Second
		a.executor.SetDefaultTimeout(a.timeout)
		fmt.Printf("✓ Default timeout set to %ds\n", seconds)
		return false

	case "sessions":
		fmt.Printf("%d active sessions\n", a.store.Count())
		return false

	case "tools":
		for _, name := range a.registry.Names() {
			fmt.Printf("  %s\n", name)
		}
		return false

	case "quit", "exit":
		return true

	default:
		fmt.Printf("✗ Unknown command: /%s (type /help for available commands)\n", name)
		return false
	}
}

// splitCommand separates "/name arg..." into name and trailing argument.
func splitCommand(input string) (string, string) {
	input = strings.TrimPrefix(input, "/")
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	name := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return name, ""
	}
	return name, strings.TrimSpace(parts[1])
}

func showHelp() {
	fmt.Println("\nAvailable Commands:")
	for _, cmd := range getAvailableCommands() {
		fmt.Printf("  /%-10s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Println("\nAnything else runs as a shell command in the persistent session.")
	fmt.Println()
}
