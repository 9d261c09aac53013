// Package main is the modelsync command. It keeps a model in a local git
// clone, merges it with its remote and repairs references a merge breaks.
package main

import (
	"os"

	"github.com/modelsync/modelsync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
