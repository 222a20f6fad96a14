package chat

import (
	"context"

	"movie-gpt-api/internal/application/retrieval"
)

// Retriever 电影检索
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*retrieval.Result, error)
}

// Completer 单轮文本补全
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
