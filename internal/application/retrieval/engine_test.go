package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inceptionHit() *VectorSearchResult {
	return &VectorSearchResult{
		ID:    "m-1",
		Score: 0.91,
		Payload: map[string]any{
			"title":    "Inception",
			"year":     "2010",
			"genre":    "Action, Adventure, Sci-Fi",
			"rating":   8.8,
			"overview": "A thief who steals corporate secrets through dream-sharing technology.",
			"director": "Christopher Nolan",
		},
	}
}

func TestRetrieve_MapsPayload(t *testing.T) {
	emb := &fakeEmbedder{dim: 4}
	repo := &fakeVectorRepo{hits: []*VectorSearchResult{
		inceptionHit(),
		{ID: "m-2", Score: 0.5, Payload: map[string]any{"title": "Memento"}},
	}}
	engine := NewEngine(emb, repo, EngineOptions{Dimension: 4})

	res, err := engine.Retrieve(context.Background(), "Who directed\nInception?", 5)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	first := res.Movies[0]
	assert.Equal(t, "Inception", first.Title)
	assert.Equal(t, "8.8", first.Rating)
	assert.Equal(t, "Christopher Nolan", first.Director)
	assert.InDelta(t, 0.91, first.Score, 1e-6)

	second := res.Movies[1]
	assert.Equal(t, "Memento", second.Title)
	assert.Equal(t, UnknownField, second.Year)
	assert.Equal(t, UnknownField, second.Genre)
	assert.Equal(t, UnknownField, second.Rating)
	assert.Equal(t, UnknownField, second.Overview)
	assert.Equal(t, UnknownField, second.Director)

	require.Len(t, emb.calls, 1)
	assert.Equal(t, []string{"Who directed Inception?"}, emb.calls[0])
	assert.Equal(t, 1, repo.searches)
	assert.Equal(t, 5, repo.lastTopK)
	assert.Len(t, repo.lastVector, 4)
}

func TestRetrieve_EnsuresCollectionOnce(t *testing.T) {
	repo := &fakeVectorRepo{}
	engine := NewEngine(&fakeEmbedder{dim: 2}, repo, EngineOptions{Dimension: 2})

	for i := 0; i < 3; i++ {
		res, err := engine.Retrieve(context.Background(), "movie", 3)
		require.NoError(t, err)
		assert.True(t, res.Empty())
		assert.NotNil(t, res)
	}
	assert.Equal(t, 1, repo.ensureCalls)
	assert.Equal(t, 3, repo.searches)
}

func TestRetrieve_ClampsTopK(t *testing.T) {
	repo := &fakeVectorRepo{}
	engine := NewEngine(&fakeEmbedder{dim: 2}, repo, EngineOptions{Dimension: 0})

	_, err := engine.Retrieve(context.Background(), "film", 500)
	require.NoError(t, err)
	assert.Equal(t, MaxTopK, repo.lastTopK)

	_, err = engine.Retrieve(context.Background(), "film", 0)
	require.Error(t, err)
}

func TestRetrieve_EmbeddingFailureNeverSearches(t *testing.T) {
	repo := &fakeVectorRepo{hits: []*VectorSearchResult{inceptionHit()}}
	engine := NewEngine(&fakeEmbedder{err: errors.New("503 upstream")}, repo, EngineOptions{Dimension: 4})

	res, err := engine.Retrieve(context.Background(), "best movie", 5)
	require.Error(t, err)
	assert.Nil(t, res)

	var rerr *RetrievalError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, StageEmbedding, rerr.Stage)
	assert.Zero(t, repo.searches)
}

func TestRetrieve_MalformedEmbedding(t *testing.T) {
	tests := []struct {
		name string
		emb  *fakeEmbedder
	}{
		{"zero length", &fakeEmbedder{dim: 0}},
		{"wrong dimension", &fakeEmbedder{dim: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeVectorRepo{}
			engine := NewEngine(tt.emb, repo, EngineOptions{Dimension: 4})

			_, err := engine.Retrieve(context.Background(), "film", 5)
			var rerr *RetrievalError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, StageEmbedding, rerr.Stage)
			assert.ErrorIs(t, err, ErrMalformedEmbedding)
			assert.Zero(t, repo.searches)
		})
	}
}

func TestRetrieve_IndexFailures(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		repo := &fakeVectorRepo{searchErr: errors.New("connection refused")}
		engine := NewEngine(&fakeEmbedder{dim: 2}, repo, EngineOptions{Dimension: 2})

		_, err := engine.Retrieve(context.Background(), "film", 5)
		var rerr *RetrievalError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, StageIndex, rerr.Stage)
	})

	t.Run("ensure", func(t *testing.T) {
		repo := &fakeVectorRepo{ensureErr: errors.New("collection load failed")}
		engine := NewEngine(&fakeEmbedder{dim: 2}, repo, EngineOptions{Dimension: 2})

		_, err := engine.Retrieve(context.Background(), "film", 5)
		var rerr *RetrievalError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, StageIndex, rerr.Stage)
		assert.Zero(t, repo.searches)
	})

	t.Run("disabled", func(t *testing.T) {
		engine := NewEngine(nil, nil, EngineOptions{Dimension: 0})
		_, err := engine.Retrieve(context.Background(), "film", 5)
		assert.ErrorIs(t, err, ErrVectorDisabled)
	})
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	engine := NewEngine(&fakeEmbedder{dim: 2}, &fakeVectorRepo{}, EngineOptions{Dimension: 2})
	_, err := engine.Retrieve(context.Background(), "  \n ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

type slowEmbedder struct{}

func (slowEmbedder) EmbedStrings(ctx context.Context, _ []string, _ ...embedding.Option) ([][]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetrieve_EmbeddingTimeout(t *testing.T) {
	repo := &fakeVectorRepo{}
	engine := NewEngine(slowEmbedder{}, repo, EngineOptions{EmbeddingTimeout: 20 * time.Millisecond})

	_, err := engine.Retrieve(context.Background(), "film", 5)
	var rerr *RetrievalError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, StageEmbedding, rerr.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, repo.searches)
}
