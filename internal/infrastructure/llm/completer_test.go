package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-gpt-api/internal/config"
)

type echoModel struct {
	got []*schema.Message
	err error
}

func (m *echoModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.got = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage("answer to: "+input[len(input)-1].Content, nil), nil
}

func (m *echoModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

type staticFactory struct {
	m     model.BaseChatModel
	err   error
	calls int
}

func (f *staticFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	f.calls++
	return f.m, f.err
}

func TestCompleter_Complete(t *testing.T) {
	m := &echoModel{}
	f := &staticFactory{m: m}
	c := NewCompleter(f, "openai")

	out, err := c.Complete(context.Background(), "who directed Inception?")
	require.NoError(t, err)
	assert.Equal(t, "answer to: who directed Inception?", out)
	require.Len(t, m.got, 1)
	assert.Equal(t, schema.User, m.got[0].Role)

	_, err = c.Complete(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestCompleter_ModelError(t *testing.T) {
	upstream := errors.New("429 too many requests")
	c := NewCompleter(&staticFactory{m: &echoModel{err: upstream}}, "")

	_, err := c.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "429 too many requests")
}

func TestCompleter_FactoryErrorRetried(t *testing.T) {
	f := &staticFactory{err: errors.New("no key")}
	c := NewCompleter(f, "")

	_, err := c.Complete(context.Background(), "hi")
	assert.Error(t, err)

	f.err = nil
	f.m = &echoModel{}
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "answer to: hi", out)
	assert.Equal(t, 2, f.calls)
}

func TestEinoFactory_UnknownProvider(t *testing.T) {
	f := NewEinoFactory(&config.Config{LLM: config.LLMConfig{
		DefaultProvider: "openai",
		Providers:       map[string]config.ProviderConfig{"openai": {Model: "gpt-4o-mini"}},
	}})

	_, err := f.Get(context.Background(), "anthropic")
	assert.ErrorContains(t, err, "not found")

	_, err = f.Default(context.Background())
	assert.ErrorContains(t, err, "api key is required")
}
