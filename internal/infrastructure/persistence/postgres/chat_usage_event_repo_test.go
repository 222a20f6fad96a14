package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/domain/repository"
)

func setupRepo(t *testing.T) (*ChatUsageEventRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewChatUsageEventRepository(NewClientFromDB(gormDB)), mock
}

func TestChatUsageEventRepository_Create(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "chat_usage_events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	evt := &entity.ChatUsageEvent{
		SessionID:      "s1",
		Classification: "IN_DOMAIN",
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		InputTokens:    120,
		OutputTokens:   30,
		Cost:           0.612,
		Currency:       "IDR",
	}
	require.NoError(t, repo.Create(context.Background(), evt))
	assert.NotEmpty(t, evt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatUsageEventRepository_CreateError(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "chat_usage_events"`)).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &entity.ChatUsageEvent{ID: "fixed"})
	assert.ErrorContains(t, err, "connection reset")
}

func TestChatUsageEventRepository_List(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "chat_usage_events" WHERE session_id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "chat_usage_events" WHERE session_id = $1 ORDER BY created_at DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "classification", "input_tokens", "currency"}).
			AddRow("b", "s1", "OUT_OF_DOMAIN", 20, "IDR").
			AddRow("a", "s1", "IN_DOMAIN", 120, "IDR"))

	events, total, err := repo.List(context.Background(), "s1", repository.NewPagination(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].ID)
	assert.Equal(t, 120, events[1].InputTokens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatUsageEventRepository_Summarize(t *testing.T) {
	repo, mock := setupRepo(t)
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	start := end.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT currency, COUNT(*) AS requests`)).
		WithArgs(start, end).
		WillReturnRows(sqlmock.NewRows([]string{"currency", "requests", "input_tokens", "output_tokens", "cost"}).
			AddRow("IDR", 3, 900, 300, 5.355))

	out, err := repo.Summarize(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "IDR", out[0].Currency)
	assert.Equal(t, int64(3), out[0].Requests)
	assert.Equal(t, int64(900), out[0].InputTokens)
	assert.InDelta(t, 5.355, out[0].Cost, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
