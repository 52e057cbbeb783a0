// Package main provides the entry point for the casandalee-core CLI.
package main

import (
	"os"

	"github.com/folken88/casandalee-discord-bot-sub000/cmd/casandalee-core/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
