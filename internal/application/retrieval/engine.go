package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"movie-gpt-api/pkg/logger"
	"movie-gpt-api/pkg/metrics"
	"movie-gpt-api/pkg/tracer"
)

// MaxTopK 单次检索的上限
const MaxTopK = 50

// EngineOptions 检索参数
type EngineOptions struct {
	// Dimension 为 0 时不校验向量维度
	Dimension        int
	EmbeddingTimeout time.Duration
	SearchTimeout    time.Duration
}

// Engine 电影检索引擎：embedding -> 向量检索 -> 解码 payload
type Engine struct {
	embedder embedding.Embedder
	vector   VectorRepository
	opts     EngineOptions

	readyMu sync.Mutex
	ready   bool
}

func NewEngine(embedder embedding.Embedder, vectorRepo VectorRepository, opts EngineOptions) *Engine {
	return &Engine{
		embedder: embedder,
		vector:   vectorRepo,
		opts:     opts,
	}
}

// withTimeout d <= 0 时不设置超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

// ensureReady 首次检索前确保集合存在并已加载，成功后不再重复
func (e *Engine) ensureReady(ctx context.Context) error {
	e.readyMu.Lock()
	defer e.readyMu.Unlock()
	if e.ready {
		return nil
	}
	if err := e.vector.EnsureMovieCollection(ctx); err != nil {
		return err
	}
	e.ready = true
	return nil
}

// Retrieve 检索与 query 最相关的 topK 部电影。
// 失败时返回 *RetrievalError，不会以零向量兜底。
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) (*Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", topK)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if !e.Enabled() {
		return nil, indexError(ErrVectorDisabled)
	}

	ctx, span := tracer.Start(ctx, "retrieval.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", topK))

	start := time.Now()
	res, err := e.retrieve(ctx, query, topK)
	if err != nil {
		var rerr *RetrievalError
		if errors.As(err, &rerr) {
			metrics.RetrievalFailures.WithLabelValues(string(rerr.Stage)).Inc()
		}
		metrics.RetrievalDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "movie retrieval failed", "error", err.Error())
		return nil, err
	}

	metrics.RetrievalDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.RetrievalHits.Observe(float64(res.Len()))
	span.SetAttributes(attribute.Int("result_count", res.Len()))
	logger.Debug(ctx, "movie retrieval done", "hits", res.Len(), "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (e *Engine) retrieve(ctx context.Context, query string, topK int) (*Result, error) {
	embedCtx, cancelEmbed := withTimeout(ctx, e.opts.EmbeddingTimeout)
	vec, err := e.embedQuery(embedCtx, query)
	cancelEmbed()
	if err != nil {
		return nil, embeddingError(err)
	}

	searchCtx, cancelSearch := withTimeout(ctx, e.opts.SearchTimeout)
	defer cancelSearch()
	if err := e.ensureReady(searchCtx); err != nil {
		return nil, indexError(err)
	}
	hits, err := e.vector.SearchMovies(searchCtx, vec, topK)
	if err != nil {
		return nil, indexError(err)
	}

	out := &Result{Query: query, Movies: make([]Movie, 0, len(hits))}
	for _, h := range hits {
		if h == nil {
			continue
		}
		out.Movies = append(out.Movies, movieFromPayload(h.ID, h.Score, h.Payload))
		if len(out.Movies) == topK {
			break
		}
	}
	return out, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e == nil || e.embedder == nil {
		return nil, ErrVectorDisabled
	}
	q := strings.TrimSpace(strings.ReplaceAll(query, "\n", " "))
	if q == "" {
		return nil, ErrEmptyQuery
	}
	v64, err := e.embedder.EmbedStrings(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("%w: empty embedding result", ErrMalformedEmbedding)
	}
	return toFloat32(v64[0], e.opts.Dimension)
}

// toFloat32 转换并校验向量，空向量或维度不符视为格式错误
func toFloat32(vec []float64, dimension int) ([]float32, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: zero-length vector", ErrMalformedEmbedding)
	}
	if dimension > 0 && len(vec) != dimension {
		return nil, fmt.Errorf("%w: got dimension %d, want %d", ErrMalformedEmbedding, len(vec), dimension)
	}
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}
