package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/flowave-io/devconsole/internal/cli"
)

const version = "0.3.0"

func printHelp() {
	fmt.Print(`Devconsole is an interactive developer console for a running host process.

Usage: devconsole [global options] <subcommand> [args]

Available commands:
  help     Show this help output
  version  Show the current devconsole version
  console  Open the console (TAB completion, history, live config reload)
  watch    Validate a configuration file every time it is saved
`)
}

func main() {
	flag.Usage = printHelp
	flagHelp := flag.Bool("help", false, "Show help")
	flag.Parse()

	args := flag.Args()

	if *flagHelp || len(args) == 0 || args[0] == "help" {
		printHelp()
		os.Exit(0)
	}

	switch args[0] {
	case "version":
		fmt.Println("devconsole", version)
		os.Exit(0)
	case "console":
		exit(cli.RunConsoleCommand(args[1:], version))
	case "watch":
		watchCmd(args[1:])
	}

	fmt.Fprintln(os.Stderr, "Unknown command: ", args[0])
	printHelp()
	os.Exit(1)
}

func exit(err error) {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
