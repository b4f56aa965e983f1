// Package main is the terminal front-end for repeater.
//
// Usage:
//
//	repeater-cli [flags] <command> [args]
//
// Commands:
//
//	session    - Interactive record / play / save loop
//	library    - Saved recordings (list)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"repeater/cmd/repeater-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
