package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"videoindex/config"
	"videoindex/processors"
	"videoindex/storage"
)

func newProcessCmd() *cobra.Command {
	var (
		sampleRate int
		documentID string
		save       bool
		timeout    time.Duration
	)

	processCmd := &cobra.Command{
		Use:   "process VIDEO_PATH",
		Short: "Process a single video and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath := args[0]

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			parser := processors.NewVideoParser(processors.ParserConfig{
				APIKey:          cfg.APIKey,
				BaseURL:         cfg.BaseURL,
				VisionModel:     cfg.VisionModel,
				TranscribeModel: cfg.TranscribeModel,
				FrameSampleRate: cfg.FrameSampleRate,
			})

			result, err := parser.ProcessVideo(ctx, videoPath, sampleRate)
			if err != nil {
				return fmt.Errorf("process video: %w", err)
			}

			if save {
				if !cfg.HasDatabase() {
					return fmt.Errorf("--save requires postgres_url to be configured")
				}
				if documentID == "" {
					documentID = uuid.NewString()
				}
				pool, err := storage.NewPool(ctx, cfg.PostgresURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := storage.EnsureSchema(ctx, pool); err != nil {
					return err
				}
				repo := storage.NewMetadataRepository(pool)
				if err := repo.Save(ctx, documentID, result); err != nil {
					return err
				}
				logrus.WithField("document_id", documentID).Info("metadata persisted")
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	processCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "frame sampling stride (0 = config default, -1 = disable captioning)")
	processCmd.Flags().StringVar(&documentID, "document-id", "", "document id used when persisting (generated when empty)")
	processCmd.Flags().BoolVar(&save, "save", false, "persist the result to the metadata store")
	processCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall processing timeout")
	return processCmd
}

func init() {
	rootCmd.AddCommand(newProcessCmd())
}
