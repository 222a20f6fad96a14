package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"movie-gpt-api/pkg/logger"
	"movie-gpt-api/pkg/metrics"
)

const defaultUpsertBatch = 50

// movieNamespace 用于从 (title, year) 生成稳定的点 ID，重复导入时覆盖而非追加
var movieNamespace = uuid.MustParse("6f1c2b9e-3d4a-4c8e-9a57-2b1e0f6d8c31")

// IndexerOptions 导入参数
type IndexerOptions struct {
	// RequestsPerSecond embedding 调用速率，<=0 表示不限速
	RequestsPerSecond float64
	BatchSize         int
	Dimension         int
}

// IndexStats 导入统计
type IndexStats struct {
	Total   int
	Indexed int
	Skipped int
	// SkippedTitles 因 embedding 失败被跳过的记录
	SkippedTitles []string
}

// Indexer 将电影记录向量化并写入向量库
type Indexer struct {
	embedder embedding.Embedder
	vector   VectorRepository
	limiter  *rate.Limiter

	batchSize int
	dimension int
}

func NewIndexer(embedder embedding.Embedder, vectorRepo VectorRepository, opts IndexerOptions) *Indexer {
	bs := opts.BatchSize
	if bs <= 0 {
		bs = defaultUpsertBatch
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &Indexer{
		embedder:  embedder,
		vector:    vectorRepo,
		limiter:   limiter,
		batchSize: bs,
		dimension: opts.Dimension,
	}
}

func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

// Prepare 确保集合可写；recreate 为 true 时先删除旧集合
func (i *Indexer) Prepare(ctx context.Context, recreate bool) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if recreate {
		return i.vector.RecreateMovieCollection(ctx)
	}
	return i.vector.EnsureMovieCollection(ctx)
}

// IndexMovies 逐条 embedding（受限速），分批 upsert。
// 单条 embedding 失败只跳过该条；写入失败直接返回。
func (i *Indexer) IndexMovies(ctx context.Context, movies []Movie) (*IndexStats, error) {
	if !i.Enabled() {
		return nil, ErrVectorDisabled
	}
	stats := &IndexStats{Total: len(movies)}
	batch := make([]*VectorMoviePoint, 0, i.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.vector.UpsertMovies(ctx, batch); err != nil {
			metrics.LoaderRowsTotal.WithLabelValues("failed").Add(float64(len(batch)))
			return fmt.Errorf("upsert %d movies: %w", len(batch), err)
		}
		stats.Indexed += len(batch)
		metrics.LoaderRowsTotal.WithLabelValues("indexed").Add(float64(len(batch)))
		logger.Info(ctx, "movies upserted", "count", len(batch), "indexed_total", stats.Indexed)
		batch = batch[:0]
		return nil
	}

	for _, m := range movies {
		if err := i.limiter.Wait(ctx); err != nil {
			return stats, err
		}
		vec, err := i.embedOne(ctx, EmbedText(m))
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Skipped++
			stats.SkippedTitles = append(stats.SkippedTitles, m.Title)
			metrics.LoaderRowsTotal.WithLabelValues("skipped").Inc()
			logger.Warn(ctx, "skip movie: embedding failed", "title", m.Title, "error", err.Error())
			continue
		}
		batch = append(batch, &VectorMoviePoint{
			ID:      MovieID(m),
			Vector:  vec,
			Payload: MoviePayload(m),
		})
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (i *Indexer) embedOne(ctx context.Context, text string) ([]float32, error) {
	v64, err := i.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("%w: empty embedding result", ErrMalformedEmbedding)
	}
	return toFloat32(v64[0], i.dimension)
}

// EmbedText 构造单部电影的 embedding 输入
func EmbedText(m Movie) string {
	text := fmt.Sprintf("Title: %s | Year: %s | Genre: %s | Rating: %s | Overview: %s | Director: %s",
		m.Title, m.Year, m.Genre, m.Rating, m.Overview, m.Director)
	return strings.ReplaceAll(text, "\n", " ")
}

// MovieID 由标题与年份生成确定性 ID
func MovieID(m Movie) string {
	key := strings.ToLower(strings.TrimSpace(m.Title)) + "|" + strings.TrimSpace(m.Year)
	return uuid.NewSHA1(movieNamespace, []byte(key)).String()
}
