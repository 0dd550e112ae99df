package main

import (
	"os"

	"github.com/viant/acp/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
