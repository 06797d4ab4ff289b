// Command ansa is a grounded question-answering service over a local
// document corpus. It indexes documentation into a vector index and
// answers questions strictly from what it has indexed, citing sources.
package main

import (
	"os"

	"github.com/custodia-labs/ansa/internal/adapters/driving/cli"
)

// version is stamped at build time:
//
//	go build -ldflags "-X main.version=1.2.3" ./cmd/ansa
var version = "dev"

func main() {
	// Cobra already printed the error; just signal failure.
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
