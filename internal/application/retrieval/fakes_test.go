package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
)

type fakeEmbedder struct {
	mu     sync.Mutex
	dim    int
	err    error
	failOn map[string]bool
	calls  [][]string
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		for key := range f.failOn {
			if key != "" && strings.Contains(t, key) {
				return nil, errors.New("embedding rejected")
			}
		}
		vec := make([]float64, f.dim)
		for i := range vec {
			vec[i] = float64(len(t)%7+i) / 10
		}
		out = append(out, vec)
	}
	return out, nil
}

type fakeVectorRepo struct {
	mu          sync.Mutex
	hits        []*VectorSearchResult
	searchErr   error
	ensureErr   error
	upsertErr   error
	ensureCalls int
	recreated   int
	searches    int
	lastTopK    int
	lastVector  []float32
	upserts     [][]*VectorMoviePoint
}

func (f *fakeVectorRepo) EnsureMovieCollection(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeVectorRepo) RecreateMovieCollection(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recreated++
	return nil
}

func (f *fakeVectorRepo) SearchMovies(_ context.Context, vector []float32, topK int) ([]*VectorSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	f.lastTopK = topK
	f.lastVector = vector
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.hits) > topK {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeVectorRepo) UpsertMovies(_ context.Context, points []*VectorMoviePoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, append([]*VectorMoviePoint(nil), points...))
	return nil
}
