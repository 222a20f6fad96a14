package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"movie-gpt-api/pkg/metrics"
)

// Repository 电影向量仓储
type Repository struct {
	client *Client
	dim    int
}

// NewRepository dim 为向量维度，需与 embedding 模型一致
func NewRepository(client *Client, dim int) *Repository {
	return &Repository{client: client, dim: dim}
}

// MovieRow 写入集合的一行
type MovieRow struct {
	ID     string
	Vector []float32
	Fields map[string]string
}

// MovieHit 检索命中
type MovieHit struct {
	ID     string
	Score  float32
	Fields map[string]string
}

func (r *Repository) configured() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	return nil
}

// EnsureMovieCollection 确保集合与索引可用（不存在则创建），不做破坏性操作
func (r *Repository) EnsureMovieCollection(ctx context.Context) error {
	if err := r.configured(); err != nil {
		return err
	}
	collName := r.client.MovieCollection()

	exists, err := r.client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		if err := r.createCollection(ctx, collName); err != nil {
			return err
		}
	}
	return r.client.LoadCollection(ctx, collName)
}

// RecreateMovieCollection 删除并重建集合
func (r *Repository) RecreateMovieCollection(ctx context.Context) error {
	if err := r.configured(); err != nil {
		return err
	}
	collName := r.client.MovieCollection()
	ctx, span := tracer.Start(ctx, "milvus.RecreateMovieCollection",
		trace.WithAttributes(attribute.String("collection", collName)))
	defer span.End()

	exists, err := r.client.HasCollection(ctx, collName)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := r.client.milvus.DropCollection(ctx, collName); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	if err := r.createCollection(ctx, collName); err != nil {
		return err
	}
	return r.client.LoadCollection(ctx, collName)
}

func (r *Repository) createCollection(ctx context.Context, collName string) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", collName)))
	defer span.End()

	if err := r.client.milvus.CreateCollection(ctx, MovieSchema(collName, r.dim), entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return r.createIndex(ctx, collName)
}

// createIndex 创建 HNSW 索引
func (r *Repository) createIndex(ctx context.Context, collName string) error {
	cfg := r.client.config
	idx, err := entity.NewIndexHNSW(metricType(cfg.MetricType), cfg.HNSWM, cfg.HNSWEfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, collName, FieldVector, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Search 按相似度降序返回至多 topK 条
func (r *Repository) Search(ctx context.Context, vector []float32, topK int) ([]*MovieHit, error) {
	if err := r.configured(); err != nil {
		return nil, err
	}
	collName := r.client.MovieCollection()
	ctx, span := tracer.Start(ctx, "milvus.SearchMovies",
		trace.WithAttributes(
			attribute.String("collection", collName),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	start := time.Now()
	status := "success"
	defer func() {
		metrics.MilvusSearchDuration.WithLabelValues(collName).Observe(time.Since(start).Seconds())
		metrics.MilvusSearchTotal.WithLabelValues(collName, status).Inc()
	}()

	sp, err := entity.NewIndexHNSWSearchParam(r.searchEf(topK))
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	outputFields := append([]string{FieldID}, payloadFields...)
	results, err := r.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		FieldVector,
		metricType(r.client.config.MetricType),
		topK,
		sp,
	)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := decodeHits(results)
	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// searchEf HNSW 要求 ef >= topK
func (r *Repository) searchEf(topK int) int {
	ef := r.client.config.HNSWEf
	if ef < topK {
		ef = topK
	}
	if ef <= 0 {
		ef = 64
	}
	return ef
}

func decodeHits(results []client.SearchResult) []*MovieHit {
	var hits []*MovieHit
	for _, result := range results {
		if result.Err != nil {
			continue
		}
		cols := make(map[string]*entity.ColumnVarChar, len(payloadFields)+1)
		for _, name := range append([]string{FieldID}, payloadFields...) {
			if col, ok := result.Fields.GetColumn(name).(*entity.ColumnVarChar); ok {
				cols[name] = col
			}
		}
		for i := 0; i < result.ResultCount; i++ {
			hit := &MovieHit{Fields: make(map[string]string, len(payloadFields))}
			if i < len(result.Scores) {
				hit.Score = result.Scores[i]
			}
			if col, ok := cols[FieldID]; ok && i < col.Len() {
				hit.ID = col.Data()[i]
			}
			for _, name := range payloadFields {
				if col, ok := cols[name]; ok && i < col.Len() {
					hit.Fields[name] = col.Data()[i]
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits
}

// Upsert 以主键覆盖写入，重复导入不会产生重复行
func (r *Repository) Upsert(ctx context.Context, rows []*MovieRow) error {
	if err := r.configured(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	collName := r.client.MovieCollection()
	ctx, span := tracer.Start(ctx, "milvus.UpsertMovies",
		trace.WithAttributes(
			attribute.String("collection", collName),
			attribute.Int("count", len(rows)),
		))
	defer span.End()

	cols, err := buildColumns(rows, r.dim)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := r.client.milvus.Upsert(ctx, collName, "", cols...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert movies: %w", err)
	}
	return nil
}

func buildColumns(rows []*MovieRow, dim int) ([]entity.Column, error) {
	ids := make([]string, 0, len(rows))
	vectors := make([][]float32, 0, len(rows))
	values := make(map[string][]string, len(payloadFields))

	for _, row := range rows {
		if row == nil {
			continue
		}
		if len(row.Vector) != dim {
			return nil, fmt.Errorf("movie %s: vector dimension %d, want %d", row.ID, len(row.Vector), dim)
		}
		ids = append(ids, row.ID)
		vectors = append(vectors, row.Vector)
		for _, name := range payloadFields {
			values[name] = append(values[name], clip(strings.TrimSpace(row.Fields[name]), name))
		}
	}

	cols := []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(FieldVector, dim, vectors),
	}
	for _, name := range payloadFields {
		cols = append(cols, entity.NewColumnVarChar(name, values[name]))
	}
	return cols, nil
}

// clip 按字段 max_length（字节）截断，不拆分多字节字符
func clip(s, field string) string {
	limit := maxLength(field)
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
