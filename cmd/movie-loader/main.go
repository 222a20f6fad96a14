// Package main 电影数据导入与检索调试工具
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"movie-gpt-api/internal/config"
	"movie-gpt-api/internal/infrastructure/eino/callback"
	"movie-gpt-api/internal/wire"
	"movie-gpt-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:          "movie-loader",
		Short:        "Load the IMDb dataset into Milvus and run test searches",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := loaded.ValidateRetrieval(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logger.InitWithWriter(
				logger.OutputWriter(loaded.Observability.Logging.Output),
				loaded.Observability.Logging.Level,
				loaded.Observability.Logging.Format,
			)
			callback.Init()
			cfg = loaded
			return nil
		},
	}

	root.AddCommand(
		newLoadCommand(func() *config.Config { return cfg }),
		newSearchCommand(func() *config.Config { return cfg }),
	)
	return root
}

func newLoadCommand(cfgFn func() *config.Config) *cobra.Command {
	var (
		csvPath  string
		limit    int
		recreate bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Embed movies from the IMDb CSV and upsert them into the vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cfgFn()
			if !cmd.Flags().Changed("csv") && cfg.Loader.CSVPath != "" {
				csvPath = cfg.Loader.CSVPath
			}
			if !cmd.Flags().Changed("limit") && cfg.Loader.Limit > 0 {
				limit = cfg.Loader.Limit
			}

			deps, cleanup, err := wire.InitializeLoader(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize loader: %w", err)
			}
			defer cleanup()

			return runLoad(cmd.Context(), cmd.OutOrStdout(), deps.Indexer, loadOptions{
				CSVPath:  csvPath,
				Limit:    limit,
				Recreate: recreate,
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "imdb_top_1000.csv", "path to the IMDb CSV file")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of rows to load, 0 loads all")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the collection before loading")
	return cmd
}

func newSearchCommand(cfgFn func() *config.Config) *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a similarity search and print the rendered context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cfgFn()
			if !cmd.Flags().Changed("top-k") && cfg.Chat.TopK > 0 {
				topK = cfg.Chat.TopK
			}

			deps, cleanup, err := wire.InitializeLoader(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize loader: %w", err)
			}
			defer cleanup()

			return runSearch(cmd.Context(), cmd.OutOrStdout(), deps.Engine, args[0], topK, cfg.Chat.MaxOverviewRunes)
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 5, "number of movies to return")
	return cmd
}
