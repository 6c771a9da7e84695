// Package main provides the entry point for g.
package main

import (
	"context"
	"os"

	"github.com/SirVer/giti/internal/cli"
)

// Build info set via ldflags at build time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Everything but fix and --update belongs to git
	if code, handled := cli.HandlePassthrough(os.Args); handled {
		os.Exit(code)
	}

	os.Exit(cli.Execute(context.Background(), os.Args[1:], version, commit, date))
}
