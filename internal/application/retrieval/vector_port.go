package retrieval

import "context"

// VectorRepository 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorRepository interface {
	EnsureMovieCollection(ctx context.Context) error
	// RecreateMovieCollection 删除并重建集合，仅供导入工具使用
	RecreateMovieCollection(ctx context.Context) error
	SearchMovies(ctx context.Context, vector []float32, topK int) ([]*VectorSearchResult, error)
	UpsertMovies(ctx context.Context, points []*VectorMoviePoint) error
}

// VectorSearchResult 按 score 降序返回
type VectorSearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

type VectorMoviePoint struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}
