package main

import (
	"os"

	"github.com/athanius07/EMESRT11/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
