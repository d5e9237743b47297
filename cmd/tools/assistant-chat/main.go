// cmd/tools/assistant-chat/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"oyz-trade/internal/assistant"
	"oyz-trade/internal/common/config"
	"oyz-trade/internal/common/database"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/recordstore"
)

// printHost shows the side effects a UI host would perform.
type printHost struct {
	out io.Writer
}

func (h printHost) Navigate(route string) {
	fmt.Fprintf(h.out, "  [navigate %s]\n", route)
}

func (h printHost) CloseDialog() {
	fmt.Fprintln(h.out, "  [close dialog]")
}

func (h printHost) OpenCreationDialog(req assistant.CreationRequest) {
	fmt.Fprintf(h.out, "  [open %s dialog: %+v]\n", req.Entity, req)
}

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to configs/config.yaml lookup)")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logger.NewStructured(*logLevel, "console")

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err == nil {
		err = pg.Ping(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	finder := recordstore.NewPostgres(pg.DB)
	var searcher recordstore.Searcher = finder
	if cfg.Assistant.SearchBackend == config.SearchBackendElasticsearch {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating elasticsearch client: %v\n", err)
			os.Exit(1)
		}
		searcher = recordstore.NewElasticsearchSearcher(es.Client, cfg.Assistant.IndexPrefix)
	}

	interp := assistant.NewInterpreter(recordstore.New(finder, searcher), assistant.Options{
		CandidateLimit: cfg.Assistant.CandidateLimit,
		HistoryLimit:   cfg.Assistant.HistoryLimit,
		Routes:         assistant.DefaultRoutes().WithOverrides(cfg.Assistant.Routes),
	}, log)

	session := interp.NewSession(uuid.NewString(), printHost{out: os.Stdout})
	fmt.Printf("conversation %s, type \"exit\" to quit\n", session.ID())

	if err := chat(ctx, session, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func chat(ctx context.Context, session *assistant.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		outcome := session.HandleTurn(ctx, line)
		fmt.Fprintln(out, outcome.Text)
	}
}
