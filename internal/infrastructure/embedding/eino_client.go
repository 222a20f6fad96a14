// Package embedding 提供文本向量化客户端
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"movie-gpt-api/internal/config"
)

// ErrMissingAPIKey 未配置 embedding 凭据
var ErrMissingAPIKey = errors.New("embedding api key is required")

// NewEinoEmbedder 创建 OpenAI 兼容的 Embedder，Endpoint 为空时使用官方地址
func NewEinoEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	embedder, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: strings.TrimSpace(cfg.Endpoint),
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder: %w", err)
	}

	return embedder, nil
}
