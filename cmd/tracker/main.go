package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gazure/arenabuddy/internal/broadcast"
	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/config"
	"github.com/gazure/arenabuddy/internal/ingest"
	"github.com/gazure/arenabuddy/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logPath    string
		follow     bool
		oneShot    bool
	)

	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Ingest the Arena client log and record finished matches and drafts",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; environment variables win either way.
			for _, path := range []string{".env", "../.env"} {
				if err := godotenv.Load(path); err == nil {
					break
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-path") {
				cfg.LogPath = logPath
			}
			if cmd.Flags().Changed("follow") {
				cfg.Follow = follow
			}
			if oneShot {
				cfg.Follow = false
			}
			return run(cfg)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a config file")
	rootCmd.Flags().StringVar(&logPath, "log-path", "", "Path to the client log")
	rootCmd.Flags().BoolVar(&follow, "follow", true, "Keep polling for new lines")
	rootCmd.Flags().BoolVar(&oneShot, "one-shot", false, "Process the existing log once and exit")
	return rootCmd
}

func run(cfg *config.Config) error {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	lookup := loadCards(cfg.CardDBPath, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := ingest.New(ingest.Config{
		Path:          cfg.LogPath,
		Follow:        cfg.Follow,
		PollInterval:  cfg.PollInterval,
		WatchRotation: cfg.WatchRotation,
	}, log)

	if cfg.DataDir != "" {
		sink, err := storage.NewJSONLSink(cfg.DataDir, lookup)
		if err != nil {
			return err
		}
		defer sink.Close()
		svc.AddMatchSink(sink)
		svc.AddDraftSink(sink)
	}
	if cfg.SQLitePath != "" {
		sink, err := storage.NewSQLiteSink(cfg.SQLitePath, lookup)
		if err != nil {
			return err
		}
		defer sink.Close()
		svc.AddMatchSink(sink)
		svc.AddDraftSink(sink)
	}
	if cfg.PostgresDSN != "" {
		sink, err := storage.NewPostgresSink(ctx, cfg.PostgresDSN, lookup)
		if err != nil {
			return err
		}
		defer sink.Close()
		svc.AddMatchSink(sink)
		svc.AddDraftSink(sink)
	}

	if cfg.BroadcastAddr != "" {
		hub := broadcast.NewHub(lookup, log)
		go hub.Run(ctx)
		svc.SetHandler(hub)

		server := &http.Server{Addr: cfg.BroadcastAddr, Handler: hub}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("broadcast server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	err := svc.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadCards(path string, log *logrus.Logger) cards.Lookup {
	if path == "" {
		log.Warn("no card db configured, opponent colors will be unknown")
		return cards.MapLookup{}
	}
	lookup, err := cards.LoadFile(path)
	if err != nil {
		log.WithError(err).Warn("card db unavailable, opponent colors will be unknown")
		return cards.MapLookup{}
	}
	log.WithField("cards", len(lookup)).Info("card db loaded")
	return lookup
}
