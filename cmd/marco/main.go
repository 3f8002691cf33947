package main

import (
	"os"

	"github.com/radezheng/marco/cmd/marco/commands"
)

// main is the entry point for the Marco CLI
// ⭐ 统一 CLI 入口: go run ./cmd/marco [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
