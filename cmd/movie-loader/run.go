package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/infrastructure/dataset"
	"movie-gpt-api/pkg/logger"
)

type movieIndexer interface {
	Prepare(ctx context.Context, recreate bool) error
	IndexMovies(ctx context.Context, movies []retrieval.Movie) (*retrieval.IndexStats, error)
}

type movieRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*retrieval.Result, error)
}

type loadOptions struct {
	CSVPath  string
	Limit    int
	Recreate bool
}

// runLoad 读取 CSV 后先准备集合再导入，CSV 不可读时不触碰向量库
func runLoad(ctx context.Context, out io.Writer, indexer movieIndexer, opts loadOptions) error {
	movies, readStats, err := dataset.LoadIMDbFile(opts.CSVPath, opts.Limit)
	if err != nil {
		return err
	}
	logger.Info(ctx, "dataset loaded",
		"path", opts.CSVPath,
		"rows", readStats.Rows,
		"kept", readStats.Kept,
		"dropped", readStats.Dropped,
	)
	if len(movies) == 0 {
		return fmt.Errorf("no usable rows in %s", opts.CSVPath)
	}

	if err := indexer.Prepare(ctx, opts.Recreate); err != nil {
		return fmt.Errorf("prepare collection: %w", err)
	}

	stats, err := indexer.IndexMovies(ctx, movies)
	if stats != nil {
		fmt.Fprintf(out, "rows read: %d, dropped (no overview): %d\n", readStats.Rows, readStats.Dropped)
		fmt.Fprintf(out, "movies indexed: %d/%d, skipped: %d\n", stats.Indexed, stats.Total, stats.Skipped)
		if len(stats.SkippedTitles) > 0 {
			fmt.Fprintf(out, "skipped titles: %s\n", strings.Join(stats.SkippedTitles, ", "))
		}
	}
	if err != nil {
		return fmt.Errorf("index movies: %w", err)
	}
	return nil
}

func runSearch(ctx context.Context, out io.Writer, retriever movieRetriever, query string, topK, maxOverviewRunes int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return retrieval.ErrEmptyQuery
	}
	res, err := retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "query: %s\nhits: %d\n\n%s\n", query, res.Len(), retrieval.RenderWithLimit(res, maxOverviewRunes))
	return nil
}
