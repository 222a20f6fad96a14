package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Completer 单轮补全：prompt 作为一条 user 消息发送，返回 assistant 文本
type Completer struct {
	factory  ChatModelFactory
	provider string

	mu       sync.Mutex
	runnable compose.Runnable[[]*schema.Message, *schema.Message]
}

// NewCompleter provider 为空时使用默认提供商
func NewCompleter(factory ChatModelFactory, provider string) *Completer {
	return &Completer{factory: factory, provider: provider}
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	r, err := c.getRunnable(ctx)
	if err != nil {
		return "", err
	}
	msg, err := r.Invoke(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// getRunnable 编译成功后缓存，失败时下次调用重试
func (c *Completer) getRunnable(ctx context.Context) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runnable != nil {
		return c.runnable, nil
	}
	if c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}

	chatModel, err := c.factory.Get(ctx, c.provider)
	if err != nil {
		return nil, err
	}
	r, err := compose.NewChain[[]*schema.Message, *schema.Message]().
		AppendChatModel(chatModel, compose.WithNodeName("movie.completion")).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile completion chain: %w", err)
	}
	c.runnable = r
	return r, nil
}
