package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	worksona "github.com/worksona/worksona-go"
)

// chatCmd loads a persona file and sends it one message.
func chatCmd(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	message := fs.String("m", "", "Message to send (required)")
	providerName := fs.String("provider", "", "Provider override for agents without one")
	model := fs.String("model", "", "Model override")
	timeout := fs.Duration("timeout", 2*time.Minute, "Maximum call duration")
	showJSON := fs.Bool("json", false, "Print the recorded transaction as JSON")

	fs.Usage = func() {
		fmt.Println(`Usage: worksona chat <persona file> [options]

Sends one message to the agent described in a .yaml or .json persona file
and prints the response.`)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() < 1 || *message == "" {
		fs.Usage()
		os.Exit(1)
	}

	orch := newOrchestrator()

	agent, err := orch.LoadAgentFromFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var opts *worksona.ChatOptions
	if *providerName != "" || *model != "" {
		opts = &worksona.ChatOptions{Provider: *providerName, Model: *model}
	}

	response, err := orch.Chat(ctx, agent.ID, *message, opts)
	if err != nil {
		fatal(err)
	}

	if *showJSON {
		history := orch.GetAgentHistory(agent.ID)
		data, _ := json.MarshalIndent(history[len(history)-1], "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println(response)
}

// validateCmd parses a persona file and reports the flattened result.
func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println(`Usage: worksona validate <persona file>

Parses a persona file, applies the config flattening rules, and prints the
agent as it would be loaded.`)
	}
	fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	// An orchestrator with no providers still loads and flattens agents.
	orch := worksona.NewOrchestrator()

	agent, err := orch.LoadAgentFromFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	out := map[string]any{
		"id":          agent.ID,
		"name":        agent.Name,
		"description": agent.Description,
		"config":      agent.Config,
		"traits":      agent.Traits,
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

// newOrchestrator builds an orchestrator with adapters for every provider
// that has a key in the environment.
func newOrchestrator() *worksona.Orchestrator {
	return worksona.NewOrchestrator(
		worksona.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
		worksona.WithAnthropic(os.Getenv("ANTHROPIC_API_KEY")),
		worksona.WithGoogle(os.Getenv("GOOGLE_API_KEY")),
	)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
