package database

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewInMemory(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx,
		WithInitStatements(`CREATE TABLE t (v INTEGER)`, `INSERT INTO t (v) VALUES (7)`),
		WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	var v int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT v FROM t`).Scan(&v))
	assert.Equal(t, 7, v)
}

func TestNewValidation(t *testing.T) {
	_, err := New(context.Background(), WithDriver(""))
	assert.ErrorContains(t, err, "driver cannot be empty")

	_, err = New(context.Background(), WithDataSource(""))
	assert.ErrorContains(t, err, "data source cannot be empty")
}

func TestNewRetriesThenFails(t *testing.T) {
	_, err := New(context.Background(),
		WithDriver("no-such-driver"),
		WithDataSource("x"),
		WithRetry(2, time.Millisecond),
		WithLogger(zaptest.NewLogger(t)),
	)
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestNewInitStatementFailure(t *testing.T) {
	_, err := New(context.Background(),
		WithInitStatements(`NOT SQL`),
		WithRetry(1, 0),
	)
	assert.ErrorContains(t, err, "init statement")
}
