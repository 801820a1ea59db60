package main

import (
	"os"

	"github.com/dcwatch/dcwatch/cmd/dcwatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
