package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/velov-sync/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/velov-sync/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/velov-sync/internal/adapter/kafka"
	"github.com/couchcryptid/velov-sync/internal/adapter/triage"
	"github.com/couchcryptid/velov-sync/internal/adapter/wikibase"
	"github.com/couchcryptid/velov-sync/internal/config"
	"github.com/couchcryptid/velov-sync/internal/domain"
	"github.com/couchcryptid/velov-sync/internal/observability"
	"github.com/couchcryptid/velov-sync/internal/pipeline"
	"github.com/couchcryptid/velov-sync/internal/profile"
)

const defaultEnvFile = ".env"

type flags struct {
	dryRun  bool
	refresh bool
	profile string
	envFile string
}

// app is the state shared by the commands once the environment is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	profile *profile.Profile
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "velov-sync",
		Short: "Synchronize Vélo'v stations with Wikidata",
		Long: `velov-sync downloads the Vélo'v station snapshot of the Grand Lyon
open-data service and creates or updates one Wikidata item per station.
Stations that match several items are listed in the triage file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup(f)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd.Context(), f)
		},
	}

	cmd.PersistentFlags().BoolVar(&f.refresh, "refresh", false, "download the feed even if the cached snapshot is fresh")
	cmd.PersistentFlags().StringVar(&f.profile, "profile", "", "network profile file (default: embedded Vélo'v profile, or PROFILE_PATH)")
	cmd.PersistentFlags().StringVar(&f.envFile, "env-file", defaultEnvFile, "file of environment variables to load before reading the configuration")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "match and reconcile stations without writing to Wikidata")

	cmd.AddCommand(newCheckCmd(a, f))
	return cmd
}

// setup loads the environment, configuration and network profile.
func (a *app) setup(f *flags) error {
	if err := loadEnvFile(f.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	a.metrics = observability.NewMetrics()

	path := cfg.ProfilePath
	if f.profile != "" {
		path = f.profile
	}
	prof, err := profile.Load(path)
	if err != nil {
		a.logger.Error("failed to load profile", "path", path, "error", err)
		return err
	}
	a.profile = prof
	return nil
}

// loadEnvFile loads variables not already set. The default file is optional.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultEnvFile {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (a *app) snapshot(ctx context.Context, refresh bool) (*feed.CachedSnapshot, error) {
	client := feed.NewClient(a.cfg.FeedURL, a.cfg.WikibaseUserAgent, a.cfg.FeedTimeout, a.logger)
	snap := feed.NewCachedSnapshot(client, a.cfg.FeedCachePath, a.cfg.FeedCacheMaxAge,
		clockwork.NewRealClock(), a.logger, a.metrics)
	if refresh {
		if err := snap.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh feed: %w", err)
		}
	}
	return snap, nil
}

func (a *app) runSync(ctx context.Context, f *flags) error {
	if !f.dryRun {
		if err := a.cfg.RequireCredentials(); err != nil {
			a.logger.Error("missing credentials", "error", err)
			return err
		}
	}

	snap, err := a.snapshot(ctx, f.refresh)
	if err != nil {
		a.logger.Error("feed unavailable", "error", err)
		return err
	}

	kb, err := wikibase.NewClient(wikibase.Options{
		APIURL:       a.cfg.WikibaseAPIURL,
		UserAgent:    a.cfg.WikibaseUserAgent,
		Timeout:      a.cfg.WikibaseTimeout,
		EditInterval: a.cfg.WikibaseEditInterval,
		MaxRetries:   a.cfg.WikibaseMaxRetries,
		MaxLag:       a.cfg.WikibaseMaxLag,
		Bot:          true,
	}, a.logger, a.metrics)
	if err != nil {
		return err
	}
	if !f.dryRun {
		if err := kb.Login(ctx, a.cfg.WikibaseUser, a.cfg.WikibasePassword); err != nil {
			a.logger.Error("wikibase login failed", "error", err)
			return err
		}
	}

	stages := pipeline.Stages{
		Source:     snap,
		Matcher:    domain.NewMatcher(kb, a.profile.OverrideTable(), a.profile.Brand),
		Reconciler: domain.NewReconciler(a.profile.Network(), a.profile.Locations(), a.profile.OverrideTable()),
		KB:         kb,
		Triage:     triage.NewFile(a.cfg.TriagePath),
	}

	var writer *kafkaadapter.Writer
	if a.cfg.KafkaEnabled() && !f.dryRun {
		writer = kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, a.logger, a.metrics)
		stages.Publisher = writer
		a.logger.Info("change events enabled", "topic", a.cfg.KafkaTopic)
	}

	p := pipeline.New(stages, pipeline.Options{Summary: a.profile.Summary, DryRun: f.dryRun}, a.logger, a.metrics)

	var srv *httpadapter.Server
	if a.cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(a.cfg.HTTPAddr, p, prometheus.DefaultGatherer, a.logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("status server error", "error", err)
			}
		}()
	}

	report, runErr := p.Run(ctx)
	if runErr != nil {
		a.logger.Error("sync failed", "error", runErr, "processed", report.Total)
	}
	if report.Skipped > 0 {
		a.logger.Warn("stations need manual triage", "count", report.Skipped, "file", a.cfg.TriagePath)
	}

	a.shutdown(srv, writer)
	return runErr
}

// shutdown flushes the optional sinks with a fresh deadline, the run context
// may already be canceled.
func (a *app) shutdown(srv *httpadapter.Server, writer *kafkaadapter.Writer) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("status server shutdown error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	if a.cfg.PushgatewayURL != "" {
		start := time.Now()
		if err := observability.Push(ctx, a.cfg.PushgatewayURL, prometheus.DefaultGatherer); err != nil {
			a.logger.Error("metrics push failed", "error", err)
		} else {
			a.logger.Debug("metrics pushed", "url", a.cfg.PushgatewayURL, "duration", time.Since(start))
		}
	}
}
