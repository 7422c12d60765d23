package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spacesedan/tickerflow/config"
	"github.com/spacesedan/tickerflow/internal/app"
	"github.com/spacesedan/tickerflow/internal/logging"
)

func main() {
	limit := flag.Int("limit", 0, "results per search term (defaults to MENTIONS_DEFAULT_LIMIT)")
	top := flag.Int("top", 5, "number of most recent mentions to print")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.Env, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *limit <= 0 {
		*limit = cfg.Mentions.DefaultLimit
	}

	scorer, _, err := app.Scoring(cfg)
	if err != nil {
		slog.Error("Failed to set up scoring", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := app.MentionAggregator(cfg, scorer).Aggregate(ctx, cfg.Mentions.Communities, cfg.Mentions.Terms, *limit)

	if batch.Unavailable() {
		slog.Error("No community could be searched", slog.Any("failed_sources", batch.FailedSources))
		os.Exit(1)
	}

	fmt.Printf("Found %d %s mentions\n", batch.Count, cfg.Ticker.Symbol)
	if len(batch.FailedSources) > 0 {
		fmt.Printf("Skipped communities: %s\n", strings.Join(batch.FailedSources, ", "))
	}
	fmt.Println()
	if batch.Empty() {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tCOMMUNITY\tUPVOTES\tSENTIMENT\tTITLE")
	for i, m := range batch.Mentions {
		if i == *top {
			break
		}
		label := "-"
		if m.Sentiment != nil {
			label = fmt.Sprintf("%s (%.2f)", m.Sentiment.Sentiment, m.Sentiment.Confidence)
		}
		fmt.Fprintf(w, "%s\tr/%s\t%d\t%s\t%s\n",
			m.Timestamp.Format(time.DateTime), m.Source, m.Upvotes, label, m.Title)
	}
	w.Flush()
}
