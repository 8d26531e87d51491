package cmd

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"videoindex/config"
	"videoindex/processors"
	"videoindex/server"
	"videoindex/storage"
)

func newServeCmd() *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the video index HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			parser := processors.NewVideoParser(processors.ParserConfig{
				APIKey:          cfg.APIKey,
				BaseURL:         cfg.BaseURL,
				VisionModel:     cfg.VisionModel,
				TranscribeModel: cfg.TranscribeModel,
				FrameSampleRate: cfg.FrameSampleRate,
			})

			var repo storage.MetadataRepository
			if cfg.HasDatabase() {
				pool, err := storage.NewPool(context.Background(), cfg.PostgresURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := storage.EnsureSchema(context.Background(), pool); err != nil {
					return err
				}
				repo = storage.NewMetadataRepository(pool)
				logrus.Info("metadata store connected")
			} else {
				logrus.Warn("no postgres_url configured, processing results will not be persisted")
			}

			srv := server.NewServer(parser, repo)
			logrus.WithField("addr", addr).Info("video index service listening")
			return http.ListenAndServe(addr, srv.Routes())
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	return serveCmd
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
