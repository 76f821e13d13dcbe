package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	worksona "github.com/worksona/worksona-go"
	"github.com/worksona/worksona-go/serve"
)

// serveCmd runs the control panel API server.
func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":3001", "Listen address")
	dbPath := fs.String("db", worksona.DefaultDBPath(), "SQLite database path")
	snapshots := fs.String("snapshots", worksona.DefaultSnapshotPath(), "Agent snapshot file (empty disables persistence)")

	fs.Usage = func() {
		fmt.Println(`Usage: worksona serve [options]

Runs the control panel REST API and SSE event stream over an orchestrator
configured from environment API keys.`)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if err := worksona.EnsureHome(); err != nil {
		fatal(err)
	}

	opts := []worksona.OrchestratorOption{
		worksona.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
		worksona.WithAnthropic(os.Getenv("ANTHROPIC_API_KEY")),
		worksona.WithGoogle(os.Getenv("GOOGLE_API_KEY")),
	}
	if *snapshots != "" {
		opts = append(opts, worksona.WithPersistence(worksona.NewJSONPersistence(*snapshots)))
	}
	orch := worksona.NewOrchestrator(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := serve.New(orch, serve.Config{Addr: *addr, DBPath: *dbPath})
	if err := srv.Start(ctx); err != nil {
		fatal(err)
	}
}
