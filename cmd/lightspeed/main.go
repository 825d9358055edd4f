package main

import (
	"fmt"
	"os"

	"github.com/opengovern/lightspeed-bridge/internal/cmd"
)

// Set via ldflags: go build -ldflags="-X main.version=1.0.0"
var version = "dev"

func main() {
	if err := cmd.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
