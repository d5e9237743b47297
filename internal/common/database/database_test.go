package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oyz-trade/internal/common/config"
	apperrors "oyz-trade/internal/common/errors"
)

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	client := &PostgresClient{DB: db}

	mock.ExpectPing()
	assert.NoError(t, client.Ping(context.Background()))

	cause := errors.New("connection refused")
	mock.ExpectPing().WillReturnError(cause)
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})}
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, apperrors.Normalize(err).Code)
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.EqualError(t, err, "redis address is empty")
}
