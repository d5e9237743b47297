package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oyz-trade/internal/assistant"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/recordstore"
)

func TestChat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pg := recordstore.NewPostgres(db)
	interp := assistant.NewInterpreter(recordstore.New(pg, pg), assistant.Options{}, logger.NewTestLogger(t))

	var out bytes.Buffer
	session := interp.NewSession("c1", printHost{out: &out})

	in := strings.NewReader("go to sales\n\nnew category Snacks\nexit\nopen settings\n")
	require.NoError(t, chat(context.Background(), session, in, &out))

	got := out.String()
	assert.Contains(t, got, "[close dialog]")
	assert.Contains(t, got, "[navigate /sales]")
	assert.Contains(t, got, "[open category dialog")
	assert.NotContains(t, got, "/settings")
	assert.NoError(t, mock.ExpectationsWereMet())
}
