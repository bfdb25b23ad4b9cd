// Command reconcile audits one identity's locally replicated match history
// against the remote service and prints the drift report.
//
//	reconcile [-season 2025-01-09T12:00:00Z] <identity>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"league-auditor/internal/api"
	"league-auditor/internal/config"
	"league-auditor/internal/constants"
	"league-auditor/internal/fetch"
	"league-auditor/internal/logger"
	"league-auditor/internal/reconcile"
	"league-auditor/internal/service"
	"league-auditor/internal/store"

	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	seasonFlag := flag.String("season", "", "season start, RFC 3339 (default: configured season start)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-season RFC3339] [-v] <identity>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	identity := flag.Arg(0)
	if identity == "" {
		flag.Usage()
		return 2
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	// logs go to stderr, the report owns stdout
	log := logger.NewWriter(os.Stderr, level)

	cfg, err := config.Load(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	season := cfg.SeasonStart
	if *seasonFlag != "" {
		season, err = time.Parse(time.RFC3339, *seasonFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid -season %q: %v\n", *seasonFlag, err)
			return 2
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetchClient := fetch.New(fetch.Config{
		Timeout:    constants.ExternalAPITimeout,
		MaxRetries: constants.MaxFetchRetries,
		RetryDelay: constants.FetchRetryDelay,
		RateLimit:  constants.FetchRateLimit,
		RateBurst:  constants.FetchRateBurst,
	}, log)

	riot := api.NewRiotClient(cfg, fetchClient, log)
	localStore := store.NewClient(cfg, fetchClient, log)
	history := service.NewHistoryService(riot, log)
	reconciler := reconcile.New(history, localStore, cfg.QueueID, log)

	report, err := reconciler.Reconcile(ctx, identity, season)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	report.Render(os.Stdout)
	return 0
}
