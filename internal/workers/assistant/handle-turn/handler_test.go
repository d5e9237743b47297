package handleturn

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oyz-trade/internal/assistant"
	apperrors "oyz-trade/internal/common/errors"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/recordstore"
	"oyz-trade/internal/sessionstore"
)

const (
	itemsContainsQuery = `SELECT * FROM "items" WHERE "item_name" ILIKE $1 ORDER BY "item_name" LIMIT $2`
	itemsFullTextQuery = `SELECT * FROM "items" WHERE to_tsvector('simple', "item_name") @@ to_tsquery('simple', $1) ` +
		`ORDER BY ts_rank(to_tsvector('simple', "item_name"), to_tsquery('simple', $1)) DESC LIMIT $2`
)

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestHandler(t *testing.T, sessions sessionstore.Store) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pg := recordstore.NewPostgres(db)
	interp := assistant.NewInterpreter(recordstore.New(pg, pg), assistant.Options{}, logger.NewTestLogger(t))
	return NewHandler(createTestConfig(), interp, sessions, logger.NewTestLogger(t)), mock
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func riceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "item_name", "item_code", "current_stock", "storage_location"}).
		AddRow(int64(1), "Basmati Rice", "R-01", int64(40), "Shelf A").
		AddRow(int64(2), "Brown Rice", "R-02", int64(12), "Shelf B")
}

func TestHandler_DisambiguationAcrossJobs(t *testing.T) {
	client, mr := setupRedis(t)
	h, mock := createTestHandler(t, sessionstore.NewRedisStore(client, time.Minute))
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(itemsContainsQuery)).
		WithArgs("%rice%", 5).
		WillReturnRows(riceRows())

	out, err := h.Execute(ctx, &Input{ConversationID: "c1", Utterance: "stock of rice"})
	require.NoError(t, err)
	assert.Equal(t, assistant.OutcomeDisambiguate, out.Outcome.Kind)
	assert.Len(t, out.Outcome.Candidates, 2)
	assert.True(t, out.HasPendingSelection)
	assert.True(t, mr.Exists(sessionstore.Key("c1")))

	out, err = h.Execute(ctx, &Input{ConversationID: "c1", Utterance: "2"})
	require.NoError(t, err)
	assert.Equal(t, assistant.OutcomeAnswered, out.Outcome.Kind)
	assert.Empty(t, out.Outcome.Status)
	require.NotNil(t, out.Outcome.Stock)
	assert.Equal(t, "Brown Rice", out.Outcome.Stock.Name)
	assert.Equal(t, "Brown Rice (R-02): 12 in stock, stored at Shelf B.", out.Outcome.Text)
	assert.False(t, out.HasPendingSelection)
	assert.False(t, mr.Exists(sessionstore.Key("c1")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name       string
		input      *Input
		setupMock  func(sqlmock.Sqlmock)
		wantKind   assistant.OutcomeKind
		wantStatus apperrors.ErrorCode
		wantRoute  string
	}{
		{
			name:      "navigation",
			input:     &Input{ConversationID: "c2", Utterance: "go to purchases"},
			setupMock: func(sqlmock.Sqlmock) {},
			wantKind:  assistant.OutcomeNavigated,
			wantRoute: "/purchases",
		},
		{
			name:  "unique stock answer",
			input: &Input{ConversationID: "c3", Utterance: "stock of basmati"},
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(itemsContainsQuery)).
					WithArgs("%basmati%", 5).
					WillReturnRows(sqlmock.NewRows([]string{"id", "item_name", "current_stock"}).
						AddRow(int64(1), "Basmati Rice", int64(40)))
			},
			wantKind: assistant.OutcomeAnswered,
		},
		{
			name:  "lookup failure is reported in the outcome",
			input: &Input{ConversationID: "c4", Utterance: "stock of rice"},
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(itemsContainsQuery)).
					WithArgs("%rice%", 5).
					WillReturnError(errors.New("connection reset"))
			},
			wantKind:   assistant.OutcomeAnswered,
			wantStatus: apperrors.ErrCodeLookupFailed,
		},
		{
			name:  "digits without pending choices are looked up",
			input: &Input{ConversationID: "c5", Utterance: "1"},
			setupMock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(itemsContainsQuery)).
					WithArgs("%1%", 5).
					WillReturnRows(sqlmock.NewRows([]string{"id", "item_name"}))
				m.ExpectQuery(regexp.QuoteMeta(itemsFullTextQuery)).
					WithArgs("1:*", 5).
					WillReturnRows(sqlmock.NewRows([]string{"id", "item_name"}))
			},
			wantKind:   assistant.OutcomeAnswered,
			wantStatus: apperrors.ErrCodeUnrecognizedIntent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := createTestHandler(t, sessionstore.NewMemoryStore(time.Minute))
			tt.setupMock(mock)

			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.input.ConversationID, out.ConversationID)
			assert.Equal(t, tt.wantKind, out.Outcome.Kind)
			assert.Equal(t, tt.wantStatus, out.Outcome.Status)
			assert.Equal(t, tt.wantRoute, out.Outcome.Route)
			assert.False(t, out.HasPendingSelection)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_GeneratesConversationID(t *testing.T) {
	h, _ := createTestHandler(t, sessionstore.NewMemoryStore(time.Minute))

	out, err := h.Execute(context.Background(), &Input{Utterance: "open dashboard"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ConversationID)
	assert.Equal(t, "/", out.Outcome.Route)
}

func TestHandler_SessionStoreFailure(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	h, _ := createTestHandler(t, sessionstore.NewRedisStore(client, time.Minute))

	redisMock.ExpectGet(sessionstore.Key("c6")).SetErr(errors.New("connection refused"))

	_, err := h.Execute(context.Background(), &Input{ConversationID: "c6", Utterance: "go to sales"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSessionStoreFailed, apperrors.Normalize(err).Code)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestInputSchema(t *testing.T) {
	assert.True(t, inputSchema.ValidateJSON(`{"utterance":"stock of rice"}`).Valid)
	assert.True(t, inputSchema.ValidateJSON(`{"utterance":"2","conversationId":"c1"}`).Valid)
	assert.False(t, inputSchema.ValidateJSON(`{"conversationId":"c1"}`).Valid)
	assert.False(t, inputSchema.ValidateJSON(`{"utterance":7}`).Valid)
}
