package main

import (
	"fmt"
	"os"

	"github.com/flowave-io/devconsole/internal/cli"
)

func watchCmd(args []string) {
	if err := cli.RunWatchCommand(args, version); err != nil {
		fmt.Fprintln(os.Stderr, "Watch error:", err)
		os.Exit(2)
	}
	os.Exit(0)
}
