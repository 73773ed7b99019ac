package main

import (
	"os"

	"github.com/darkprince558/tether/cmd/tether/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
