package milvus

import (
	"context"
	"fmt"

	"movie-gpt-api/internal/application/retrieval"
)

// RetrievalVectorRepository 将 Repository 适配为 retrieval.VectorRepository
type RetrievalVectorRepository struct {
	repo *Repository
}

func NewRetrievalVectorRepository(repo *Repository) *RetrievalVectorRepository {
	return &RetrievalVectorRepository{repo: repo}
}

var _ retrieval.VectorRepository = (*RetrievalVectorRepository)(nil)

func (r *RetrievalVectorRepository) EnsureMovieCollection(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.EnsureMovieCollection(ctx)
}

func (r *RetrievalVectorRepository) RecreateMovieCollection(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.RecreateMovieCollection(ctx)
}

func (r *RetrievalVectorRepository) SearchMovies(ctx context.Context, vector []float32, topK int) ([]*retrieval.VectorSearchResult, error) {
	if r == nil || r.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}

	hits, err := r.repo.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	results := make([]*retrieval.VectorSearchResult, 0, len(hits))
	for _, h := range hits {
		if h == nil {
			continue
		}
		payload := make(map[string]any, len(h.Fields))
		for k, v := range h.Fields {
			payload[k] = v
		}
		results = append(results, &retrieval.VectorSearchResult{
			ID:      h.ID,
			Score:   h.Score,
			Payload: payload,
		})
	}
	return results, nil
}

func (r *RetrievalVectorRepository) UpsertMovies(ctx context.Context, points []*retrieval.VectorMoviePoint) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	if len(points) == 0 {
		return nil
	}

	rows := make([]*MovieRow, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		fields := make(map[string]string, len(payloadFields))
		for _, name := range payloadFields {
			if v, ok := p.Payload[name]; ok && v != nil {
				fields[name] = fmt.Sprint(v)
			}
		}
		rows = append(rows, &MovieRow{ID: p.ID, Vector: p.Vector, Fields: fields})
	}
	return r.repo.Upsert(ctx, rows)
}
