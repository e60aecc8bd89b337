package main

import (
	"os"

	"github.com/datlevan/tnpipe/cmd/tnpipe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
