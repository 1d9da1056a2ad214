package main

import (
	"fmt"
	"io"
	"os"
)

const version = "0.1.0-dev"

// Exit codes.
const (
	exitOK       = 0
	exitProblems = 1 // lint errors or files that could not be linted
	exitUsage    = 2 // bad flags, config or I/O failure
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "lint":
		return runLint(rest, stdout, stderr)
	case "watch":
		return runWatch(rest, stdout, stderr)
	case "serve":
		return runServe(rest, stderr)
	case "rules":
		return runRules(rest, stdout, stderr)
	case "init":
		return runInit(rest, stdout, stderr)
	case "setup":
		return runSetup(rest, stdin, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "tokenlint %s\n", version)
		return exitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", command)
		printUsage(stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tokenlint <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  lint       Lint files or directories (default: .)")
	fmt.Fprintln(w, "  watch      Lint a directory and re-lint files as they change")
	fmt.Fprintln(w, "  serve      Start the MCP server on stdio")
	fmt.Fprintln(w, "  rules      Show the token categories and lint rules")
	fmt.Fprintln(w, "  init       Write a default .tokenlint/config.yaml")
	fmt.Fprintln(w, "  setup      Register the MCP server with detected AI agents")
	fmt.Fprintln(w, "  version    Print version")
	fmt.Fprintln(w, "  help       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'tokenlint <command> -h' for command flags.")
}
