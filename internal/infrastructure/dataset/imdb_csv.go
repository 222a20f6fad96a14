// Package dataset 读取 IMDb Top 1000 CSV
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"movie-gpt-api/internal/application/retrieval"
)

// CSV 列名
const (
	ColumnTitle    = "Series_Title"
	ColumnYear     = "Released_Year"
	ColumnGenre    = "Genre"
	ColumnRating   = "IMDB_Rating"
	ColumnOverview = "Overview"
	ColumnDirector = "Director"
)

var requiredColumns = []string{ColumnTitle, ColumnOverview}

// ReadStats 读取统计
type ReadStats struct {
	Rows    int
	Kept    int
	Dropped int
}

// LoadIMDbFile 打开并解析 CSV 文件，limit <= 0 表示不限
func LoadIMDbFile(path string, limit int) ([]retrieval.Movie, *ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadIMDb(f, limit)
}

// ReadIMDb 解析 CSV，丢弃没有剧情简介或标题的行。
// limit 作用于保留下来的记录数。
func ReadIMDb(r io.Reader, limit int) ([]retrieval.Movie, *ReadStats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("dataset is empty")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("dataset missing column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	stats := &ReadStats{}
	var movies []retrieval.Movie
	for limit <= 0 || len(movies) < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		m := retrieval.Movie{
			Title:    field(rec, ColumnTitle),
			Year:     field(rec, ColumnYear),
			Genre:    field(rec, ColumnGenre),
			Rating:   field(rec, ColumnRating),
			Overview: field(rec, ColumnOverview),
			Director: field(rec, ColumnDirector),
		}
		if m.Title == "" || m.Overview == "" {
			stats.Dropped++
			continue
		}
		movies = append(movies, m)
	}
	stats.Kept = len(movies)
	return movies, stats, nil
}
