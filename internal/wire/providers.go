package wire

import (
	"context"
	"fmt"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"movie-gpt-api/internal/application/chat"
	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/config"
	"movie-gpt-api/internal/domain/repository"
	"movie-gpt-api/internal/domain/service"
	infraembedding "movie-gpt-api/internal/infrastructure/embedding"
	"movie-gpt-api/internal/infrastructure/llm"
	"movie-gpt-api/internal/infrastructure/persistence/milvus"
	"movie-gpt-api/internal/infrastructure/persistence/postgres"
	"movie-gpt-api/internal/infrastructure/persistence/redis"
	"movie-gpt-api/internal/interfaces/http/handler"
	"movie-gpt-api/internal/interfaces/http/middleware"
	"movie-gpt-api/internal/interfaces/http/router"
	"movie-gpt-api/pkg/logger"
)

// Loader 导入工具依赖
type Loader struct {
	Engine  *retrieval.Engine
	Indexer *retrieval.Indexer
}

// 以下 Optional 提供者在依赖不可用时返回 nil，接口类型的返回值保持为无类型 nil

func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		logger.Info(ctx, "redis disabled, chat history and rate limiting are off")
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, chat history and rate limiting are off", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideHistoryStore(client *redis.Client, cfg *config.Config) repository.ChatHistoryRepository {
	if client == nil {
		return nil
	}
	return redis.NewHistoryStore(client, cfg.Chat.HistoryTurns*2)
}

func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

func ProvidePostgresClientOptional(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Database.Postgres.Enabled {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Warn(ctx, "postgres not available, usage ledger disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err := client.AutoMigrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to migrate usage ledger: %w", err)
		}
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideUsageRepository(client *postgres.Client) repository.ChatUsageEventRepository {
	if client == nil {
		return nil
	}
	return postgres.NewChatUsageEventRepository(client)
}

// ProvideMilvusClient 提供 Milvus 客户端
func ProvideMilvusClient(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, answers will be degraded", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

func ProvideMilvusRepository(client *milvus.Client, cfg *config.Config) *milvus.Repository {
	return milvus.NewRepository(client, cfg.Embedding.Dimension)
}

func ProvideMilvusRepositoryOptional(client *milvus.Client, cfg *config.Config) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client, cfg.Embedding.Dimension)
}

func ProvideRetrievalVectorRepositoryOptional(repo *milvus.Repository) retrieval.VectorRepository {
	if repo == nil {
		return nil
	}
	return milvus.NewRetrievalVectorRepository(repo)
}

func ProvideLoaderVectorRepository(repo *milvus.Repository) retrieval.VectorRepository {
	return milvus.NewRetrievalVectorRepository(repo)
}

// ProvideEmbedder 提供 Embedder，失败即返回错误
func ProvideEmbedder(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	return infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
}

func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, answers will be degraded", "error", err.Error())
		return nil, nil
	}
	return embedder, nil
}

func ProvideRetrievalEngine(cfg *config.Config, embedder einoembedding.Embedder, vectorRepo retrieval.VectorRepository) *retrieval.Engine {
	return retrieval.NewEngine(embedder, vectorRepo, retrieval.EngineOptions{
		Dimension:        cfg.Embedding.Dimension,
		EmbeddingTimeout: cfg.Chat.Timeouts.Embedding,
		SearchTimeout:    cfg.Chat.Timeouts.Search,
	})
}

func ProvideRetrievalIndexer(cfg *config.Config, embedder einoembedding.Embedder, vectorRepo retrieval.VectorRepository) *retrieval.Indexer {
	return retrieval.NewIndexer(embedder, vectorRepo, retrieval.IndexerOptions{
		RequestsPerSecond: cfg.Loader.RequestsPerSecond,
		BatchSize:         cfg.Loader.BatchSize,
		Dimension:         cfg.Embedding.Dimension,
	})
}

func ProvideCompleter(factory llm.ChatModelFactory, cfg *config.Config) *llm.Completer {
	return llm.NewCompleter(factory, cfg.LLM.DefaultProvider)
}

// ProvideAgent 组装问答编排器
func ProvideAgent(cfg *config.Config, engine *retrieval.Engine, completer *llm.Completer, recorder service.ChatUsageRecorder) *chat.Agent {
	return chat.NewAgent(
		chat.NewKeywordClassifier(cfg.Chat.DomainKeywords),
		engine,
		chat.NewPromptBuilder(cfg.Chat.AnswerLanguage),
		completer,
		chat.NewUsageEstimator(chat.PricingFromConfig(cfg.Chat.Pricing)),
		recorder,
		chat.OptionsFromConfig(cfg),
	)
}

func ProvideChatHandler(agent *chat.Agent, history repository.ChatHistoryRepository, cfg *config.Config) *handler.ChatHandler {
	return handler.NewChatHandler(agent, history, handler.ChatHandlerOptions{
		MaxQuestionRunes: cfg.Chat.MaxQuestionRunes,
		HistoryTurns:     cfg.Chat.HistoryTurns,
	})
}

// ProvideHealthHandler Milvus 为必需依赖，Redis 与 Postgres 失败只标记 degraded
func ProvideHealthHandler(cfg *config.Config, milvusClient *milvus.Client, redisClient *redis.Client, pgClient *postgres.Client) *handler.HealthHandler {
	deps := []handler.Dependency{{Name: "milvus", Required: true}}
	if milvusClient != nil {
		deps[0].Checker = milvusClient
	}
	redisDep := handler.Dependency{Name: "redis"}
	if redisClient != nil {
		redisDep.Checker = redisClient
	}
	pgDep := handler.Dependency{Name: "postgres"}
	if pgClient != nil {
		pgDep.Checker = pgClient
	}
	return handler.NewHealthHandler(cfg.App.Version, append(deps, redisDep, pgDep)...)
}

func ProvideRouter(cfg *config.Config, handlers router.Handlers, limiter middleware.RateLimiter) *router.Router {
	return router.New(cfg, handlers, limiter)
}
