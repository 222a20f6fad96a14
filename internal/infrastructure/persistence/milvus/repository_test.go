package milvus

import (
	"context"
	"strings"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/config"
)

func TestMovieSchema(t *testing.T) {
	s := MovieSchema("movie_gpt_imdb_movies", 1536)

	assert.Equal(t, "movie_gpt_imdb_movies", s.CollectionName)
	require.Len(t, s.Fields, 2+len(payloadFields))
	assert.True(t, s.Fields[0].PrimaryKey)
	assert.False(t, s.Fields[0].AutoID)
	assert.Equal(t, "1536", s.Fields[1].TypeParams["dim"])
	assert.Equal(t, entity.FieldTypeFloatVector, s.Fields[1].DataType)
	assert.Equal(t, "8192", s.Fields[2+4].TypeParams["max_length"])
}

func TestCollectionNaming(t *testing.T) {
	c := &Client{config: &config.MilvusConfig{CollectionPrefix: "movie_gpt"}}
	assert.Equal(t, "movie_gpt_imdb_movies", c.MovieCollection())

	c = &Client{config: &config.MilvusConfig{Collection: "films"}}
	assert.Equal(t, "films", c.MovieCollection())
}

func TestMetricType(t *testing.T) {
	assert.Equal(t, entity.L2, metricType("L2"))
	assert.Equal(t, entity.IP, metricType("IP"))
	assert.Equal(t, entity.COSINE, metricType("COSINE"))
	assert.Equal(t, entity.COSINE, metricType(""))
}

func TestSearchEf(t *testing.T) {
	r := NewRepository(&Client{config: &config.MilvusConfig{HNSWEf: 64}}, 4)
	assert.Equal(t, 64, r.searchEf(5))
	assert.Equal(t, 100, r.searchEf(100))

	r = NewRepository(&Client{config: &config.MilvusConfig{}}, 4)
	assert.Equal(t, 64, r.searchEf(0))
}

func TestDecodeHits(t *testing.T) {
	results := []client.SearchResult{{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.7},
		Fields: client.ResultSet{
			entity.NewColumnVarChar(FieldID, []string{"a", "b"}),
			entity.NewColumnVarChar(FieldTitle, []string{"Inception", "Heat"}),
			entity.NewColumnVarChar(FieldYear, []string{"2010", "1995"}),
		},
	}}

	hits := decodeHits(results)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.InDelta(t, 0.9, hits[0].Score, 1e-6)
	assert.Equal(t, "Inception", hits[0].Fields[FieldTitle])
	assert.Equal(t, "1995", hits[1].Fields[FieldYear])
	_, ok := hits[1].Fields[FieldDirector]
	assert.False(t, ok)
}

func TestBuildColumns(t *testing.T) {
	cols, err := buildColumns([]*MovieRow{
		{ID: "a", Vector: []float32{1, 0}, Fields: map[string]string{FieldTitle: " Inception "}},
		nil,
		{ID: "b", Vector: []float32{0, 1}},
	}, 2)
	require.NoError(t, err)
	require.Len(t, cols, 2+len(payloadFields))
	assert.Equal(t, 2, cols[0].Len())

	title, ok := cols[2].(*entity.ColumnVarChar)
	require.True(t, ok)
	assert.Equal(t, []string{"Inception", ""}, title.Data())

	_, err = buildColumns([]*MovieRow{{ID: "x", Vector: []float32{1}}}, 2)
	assert.Error(t, err)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "2010", clip("2010", FieldYear))

	long := strings.Repeat("é", 10)
	got := clip(long, FieldYear)
	assert.LessOrEqual(t, len(got), 16)
	assert.Equal(t, strings.Repeat("é", 8), got)
}

func TestUnconfiguredRepository(t *testing.T) {
	var r *Repository
	_, err := r.Search(context.Background(), []float32{1}, 3)
	assert.Error(t, err)

	var adapter *RetrievalVectorRepository
	assert.ErrorIs(t, adapter.EnsureMovieCollection(context.Background()), retrieval.ErrVectorDisabled)
	assert.NoError(t, NewRetrievalVectorRepository(NewRepository(nil, 2)).UpsertMovies(context.Background(), nil))
}
