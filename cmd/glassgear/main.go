// Package main is the entry point for the glassgear CLI.
//
// Usage:
//
//	glassgear [flags] <command> [args]
//
// Commands:
//
//	simulate - Run the device control plane with simulated drivers
//	monitor  - Attach to a running device and watch its streams
//	snap     - Request a single photo and save it to a file
//	ota      - Drive an over-the-air firmware update
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/glassgear/cmd/glassgear/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
