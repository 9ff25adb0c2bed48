// Package main provides the typegraph command.
package main

import (
	"os"

	"github.com/leapstack-labs/typegraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
