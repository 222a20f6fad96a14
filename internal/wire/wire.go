//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"movie-gpt-api/internal/application/quota"
	"movie-gpt-api/internal/config"
	"movie-gpt-api/internal/domain/service"
	"movie-gpt-api/internal/infrastructure/llm"
	"movie-gpt-api/internal/interfaces/http/handler"
	"movie-gpt-api/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 服务（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RedisSet,
		PostgresSet,
		MilvusAppSet,
		EmbeddingSet,
		ChatSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeLoader 初始化数据导入工具，Milvus 与 Embedding 均为必需
func InitializeLoader(ctx context.Context, cfg *config.Config) (*Loader, func(), error) {
	wire.Build(
		LoaderSet,
		wire.Struct(new(Loader), "*"),
	)
	return nil, nil, nil
}

// RedisSet Redis 提供者集合，未启用时会话历史与限流关闭
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideHistoryStore,
	ProvideRateLimiter,
)

// PostgresSet 用量台账提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClientOptional,
	ProvideUsageRepository,
	quota.NewUsageRecorder,
	wire.Bind(new(service.ChatUsageRecorder), new(*quota.UsageRecorder)),
)

// MilvusAppSet API 服务可选 Milvus（不可达时不阻塞启动）
var MilvusAppSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideMilvusRepositoryOptional,
	ProvideRetrievalVectorRepositoryOptional,
)

// EmbeddingSet 可选 Embedder（不可用时检索降级）
var EmbeddingSet = wire.NewSet(
	ProvideEmbedderOptional,
)

// ChatSet 问答编排
var ChatSet = wire.NewSet(
	ProvideRetrievalEngine,
	llm.NewEinoFactory,
	wire.Bind(new(llm.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideCompleter,
	ProvideAgent,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideChatHandler,
	handler.NewUsageHandler,
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)

// LoaderSet 导入工具提供者集合
var LoaderSet = wire.NewSet(
	ProvideMilvusClient,
	ProvideMilvusRepository,
	ProvideEmbedder,
	ProvideLoaderVectorRepository,
	ProvideRetrievalEngine,
	ProvideRetrievalIndexer,
)
