// Package main provides the Worksona CLI.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "chat":
		chatCmd(args)
	case "validate":
		validateCmd(args)
	case "serve":
		serveCmd(args)
	case "version":
		fmt.Printf("worksona %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Worksona - multi-provider LLM agent personas

Usage:
  worksona <command> [options]

Commands:
  chat      Send a message to an agent defined in a persona file
  validate  Validate a persona file and show the flattened config
  serve     Run the control panel REST/SSE API server
  version   Print version information
  help      Show this help message

Examples:
  worksona chat support.yaml -m "How do I reset my password?"
  worksona validate support.yaml
  worksona serve -addr :3001

Provider API keys are read from OPENAI_API_KEY, ANTHROPIC_API_KEY, and
GOOGLE_API_KEY.

Run 'worksona <command> --help' for more information on a command.`)
}
