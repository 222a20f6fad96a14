package chat

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion 模型返回空文本
var ErrEmptyCompletion = errors.New("model returned an empty answer")

// ErrEmptyQuestion 问题为空
var ErrEmptyQuestion = errors.New("question is required")

// CompletionError 模型调用失败，对当前请求不可恢复
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("chat completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// ClassificationError 预留给可能失败的分类器实现，关键词分类器不会返回
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}
