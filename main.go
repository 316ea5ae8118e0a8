package main

import (
	"os"

	"github.com/satchelhq/satchel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
