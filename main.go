/* main.go
 * The "main" method for running the survivor pool bot, web server or a one off reconciliation
 * Usage: go run . -mode=<bot|web|reconcile|audit|sync> [-config=config/config.yaml] [-week=N] [-dry-run]
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"survivor-pool/api/api"
	"survivor-pool/api/external"
	"survivor-pool/api/store"
	"survivor-pool/bot"
	"survivor-pool/config"
	"survivor-pool/web"

	"github.com/sirupsen/logrus"
)

func main() {
	configPtr := flag.String("config", "", "Path to a yaml config file, defaults to config/config.yaml if present")
	modePtr := flag.String("mode", "bot", "What to run: bot, web, reconcile, audit or sync")
	weekPtr := flag.Int("week", 0, "Week to reconcile or sync, or the last week to audit")
	dryRunPtr := flag.Bool("dry-run", false, "Compute eliminations without writing them")
	flag.Parse()

	cfg, err := config.Load(*configPtr)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.WithError(err).Fatal("failed to create logger")
	}

	mode, err := parseMode(*modePtr)
	if err != nil {
		logger.WithError(err).Fatal("invalid mode")
	}
	if err := checkWeek(mode, *weekPtr); err != nil {
		logger.WithError(err).Fatal("invalid week")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger, mode, *weekPtr, *dryRunPtr)
	stop()
	if err != nil {
		logger.WithError(err).Fatalf("%s failed", mode)
	}
}

// run connects to the store and runs the requested mode until it finishes or ctx is cancelled
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, mode runMode, week int, dryRun bool) error {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s, err := store.NewStore(connectCtx, cfg.Mongo.Database, cfg.Mongo.URI)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := s.Disconnect(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to disconnect from mongo")
		}
	}()
	if err := s.EnsureIndexes(connectCtx); err != nil {
		return err
	}

	var feed api.ResultsFeed
	if cfg.Feed.BaseURL != "" {
		feed = external.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.RequestsPerSecond, cfg.Feed.Timeout, logger)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	apiPtr, err := api.NewAPI(s, feed, policy, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}

	switch mode {
	case modeBot:
		b, err := bot.NewBot(cfg.Discord.Token, apiPtr, cfg.IsAdmin, logger)
		if err != nil {
			return err
		}
		return b.Run(ctx)

	case modeWeb:
		return web.Start(ctx, web.Config{
			Addr:       cfg.Server.Addr,
			Mode:       cfg.Server.Mode,
			Secret:     cfg.Server.WebhookSecret,
			WebhookRPS: cfg.Server.WebhookRPS,
			API:        apiPtr,
			Logger:     logger,
		})

	case modeSync:
		n, err := apiPtr.SyncWeekResults(ctx, week)
		if err != nil {
			return err
		}
		fmt.Printf("Stored %d games for week %d\n", n, week)
		return nil

	case modeAudit:
		result, err := apiPtr.Audit(ctx, week, dryRun)
		fmt.Print(api.FormatRunResult(result))
		return err

	default:
		result, err := apiPtr.Reconcile(ctx, week, dryRun)
		fmt.Print(api.FormatRunResult(result))
		return err
	}
}
