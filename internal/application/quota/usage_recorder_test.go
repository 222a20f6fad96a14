package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/repository"
	"movie-gpt-api/internal/domain/service"
)

type memUsageRepo struct {
	events []*entity.ChatUsageEvent
}

func (m *memUsageRepo) Create(_ context.Context, e *entity.ChatUsageEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memUsageRepo) List(context.Context, string, repository.Pagination) ([]*entity.ChatUsageEvent, int64, error) {
	return m.events, int64(len(m.events)), nil
}

func (m *memUsageRepo) Summarize(context.Context, time.Time, time.Time) ([]*entity.UsageSummary, error) {
	return nil, nil
}

func TestUsageRecorder_Record(t *testing.T) {
	repo := &memUsageRepo{}
	r := NewUsageRecorder(repo)

	err := r.Record(context.Background(), service.ChatUsageInput{
		SessionID:      " s1 ",
		Classification: "IN_DOMAIN",
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		InputTokens:    100,
		OutputTokens:   20,
		Cost:           0.459,
		Currency:       "IDR",
		Duration:       1500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)
	assert.Equal(t, "s1", repo.events[0].SessionID)
	assert.Equal(t, int64(1500), repo.events[0].DurationMs)
	assert.Equal(t, 0.459, repo.events[0].Cost)
}

func TestUsageRecorder_Invalid(t *testing.T) {
	repo := &memUsageRepo{}
	err := NewUsageRecorder(repo).Record(context.Background(), service.ChatUsageInput{InputTokens: -1})
	assert.Error(t, err)
	assert.Empty(t, repo.events)
}

func TestUsageRecorder_NoRepo(t *testing.T) {
	var r *UsageRecorder
	assert.NoError(t, r.Record(context.Background(), service.ChatUsageInput{}))
	assert.NoError(t, NewUsageRecorder(nil).Record(context.Background(), service.ChatUsageInput{}))
}
