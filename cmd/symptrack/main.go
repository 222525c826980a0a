package main

import (
	"os"

	"github.com/wonny/symptrack/cmd/symptrack/commands"
)

// main is the entry point for the symptrack CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/symptrack [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
