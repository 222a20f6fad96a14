package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrVectorDisabled 表示向量检索/索引能力未配置（Milvus 或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector retrieval is disabled")
	// ErrEmptyQuery 查询为空
	ErrEmptyQuery = errors.New("query is empty")
	// ErrMalformedEmbedding embedding 服务返回空向量或维度不符
	ErrMalformedEmbedding = errors.New("malformed embedding")
)

// Stage 检索失败所处阶段
type Stage string

const (
	StageEmbedding Stage = "embedding"
	StageIndex     Stage = "index"
)

// RetrievalError 检索失败。不携带任何凭据，只描述阶段与原因。
type RetrievalError struct {
	Stage Stage
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s stage: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func embeddingError(err error) error {
	return &RetrievalError{Stage: StageEmbedding, Err: err}
}

func indexError(err error) error {
	return &RetrievalError{Stage: StageIndex, Err: err}
}
