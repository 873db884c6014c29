// Command ratecraft is the operator CLI for the rating engine.
package main

import (
	"os"

	"github.com/turtacn/RateCraft/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
	os.Exit(cli.Execute())
}

//Personal.AI order the ending
