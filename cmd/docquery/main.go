// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docquery"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/query"
)

func main() {
	app := &cli.App{
		Name:  "docquery",
		Usage: "Ask questions about your PDF documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Google AI API key",
				EnvVars: []string{"GEMINI_API_KEY"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract, chunk, embed, and index PDF documents",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the vector index directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent extraction workers (0 uses half the CPUs)",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the indexed documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"i"},
						Usage:    "Path to the vector index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Preferred generation model (falls back through the catalog when unavailable)",
					},
					&cli.Float64Flag{
						Name:    "temperature",
						Aliases: []string{"t"},
						Usage:   "Generation temperature (clamped to the model's range)",
						Value:   1.0,
					},
				},
			},
			{
				Name:   "models",
				Usage:  "List the catalogued provider models in failover order",
				Action: modelsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads the environment and configures logging.
func setup(c *cli.Context) error {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	return nil
}

func newService(c *cli.Context, indexPath string) (*docquery.Service, error) {
	apiKey := c.String("api-key")
	if apiKey == "" {
		return nil, fmt.Errorf("an API key is required: set GEMINI_API_KEY or pass --api-key")
	}

	opts := []docquery.ServiceOption{
		docquery.WithAIConfig(ai.NewConfig(ai.WithAPIKey(apiKey))),
	}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, docquery.WithPoolSize(workers))
	}
	return docquery.NewService(indexPath, opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one PDF file is required")
	}

	svc, err := newService(c, c.String("index"))
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.IngestFiles(context.Background(), c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Indexed %d chunks from %d of %d documents\n",
		result.ChunksIndexed, result.Processed, c.NArg())
	for _, diag := range result.Diagnostics {
		if diag.PageNumber > 0 {
			fmt.Fprintf(os.Stderr, "warning: %s page %d: %s\n", diag.SourceID, diag.PageNumber, diag.Message)
		} else {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", diag.SourceID, diag.Message)
		}
	}

	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	question := strings.Join(c.Args().Slice(), " ")

	svc, err := newService(c, c.String("index"))
	if err != nil {
		return err
	}
	defer svc.Close()

	answer, err := svc.Ask(context.Background(), &query.Request{
		Question:    question,
		ProviderID:  c.String("model"),
		Temperature: c.Float64("temperature"),
	})
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	fmt.Println()
	if answer.UsedFallback {
		fmt.Fprintf(os.Stderr, "note: answered by fallback model %s\n", answer.ProviderID)
	}
	if len(answer.Sources) > 0 {
		fmt.Fprintf(os.Stderr, "sources: %s\n", strings.Join(answer.Sources, ", "))
	}

	return nil
}

func modelsCommand(c *cli.Context) error {
	catalog := ai.DefaultCatalog()

	fmt.Println("Generation models (failover order):")
	for _, desc := range catalog.ListByPriority(ai.KindGeneration) {
		fmt.Printf("  %d. %s", desc.Priority, desc.ID)
		if desc.DisplayName != "" {
			fmt.Printf(" (%s)", desc.DisplayName)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println("Embedding models (failover order):")
	for _, desc := range catalog.ListByPriority(ai.KindEmbedding) {
		fmt.Printf("  %d. %s", desc.Priority, desc.ID)
		if desc.DisplayName != "" {
			fmt.Printf(" (%s)", desc.DisplayName)
		}
		fmt.Println()
	}

	return nil
}
