package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "check":
		err = runCheck(args)
	case "hints":
		err = runHints(args)
	case "index":
		err = runIndex(args)
	case "serve":
		err = runServe(args)
	case "watch":
		err = runWatch(args)
	case "version":
		fmt.Printf("rustlens %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: rustlens <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check <file>...          Lint files and print diagnostics")
	fmt.Println("  hints <file>...          Print inlay hints for files")
	fmt.Println("  index <root> [--export <file>]")
	fmt.Println("                           Index a workspace, optionally exporting")
	fmt.Println("                           it as crate metadata JSON")
	fmt.Println("  serve                    Start MCP server on stdio")
	fmt.Println("  watch <root>             Index a workspace and reindex on changes")
	fmt.Println("  version                  Print version")
	fmt.Println("  help                     Show this help message")
}
