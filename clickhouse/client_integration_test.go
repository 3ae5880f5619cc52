package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcclickhouse "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"dbbind/schema"
)

func setupClickHouse(t *testing.T) Config {
	t.Helper()
	ctx := context.Background()

	container, err := tcclickhouse.Run(ctx, "clickhouse/clickhouse-server:24.8-alpine",
		tcclickhouse.WithUsername("dbbind"),
		tcclickhouse.WithPassword("testpass"),
		tcclickhouse.WithDatabase("default"),
	)
	require.NoError(t, err, "failed to start ClickHouse container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8123/tcp")
	require.NoError(t, err)

	return Config{
		URL:      host,
		Port:     port.Int(),
		User:     "dbbind",
		Password: "testpass",
		Protocol: ProtocolHTTP,
	}
}

func TestClientIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := setupClickHouse(t)
	ctx := context.Background()

	client, err := Open[NullDBMS](ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Exec(ctx, "CREATE DATABASE IF NOT EXISTS ethereum"))
	require.NoError(t, client.Exec(ctx, "CREATE TABLE ethereum.blocks (number UInt64, hash String) ENGINE = MergeTree ORDER BY number"))

	t.Run("insert and query", func(t *testing.T) {
		rows := []blockRow{{Number: 1, Hash: "0x1"}, {Number: 2, Hash: "0x2"}}
		require.NoError(t, InsertMany[testBlocks](ctx, client, rows))

		got, err := QueryMany[blockRow](ctx, client, "SELECT number, hash FROM ethereum.blocks ORDER BY number")
		require.NoError(t, err)
		assert.Equal(t, rows, got)

		one, err := QueryOne[blockRow](ctx, client, "SELECT number, hash FROM ethereum.blocks WHERE number = ?", uint64(2))
		require.NoError(t, err)
		assert.Equal(t, "0x2", one.Hash)
	})

	t.Run("optional without rows", func(t *testing.T) {
		got, err := QueryOneOptional[blockRow](ctx, client, "SELECT number, hash FROM ethereum.blocks WHERE number = 100")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("query error is typed", func(t *testing.T) {
		_, err := QueryMany[blockRow](ctx, client, "SELECT number, hash FROM ethereum.missing")
		assert.ErrorIs(t, err, schema.ErrQuery)
	})
}

func TestOpenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	_, err := Open[NullDBMS](context.Background(), Config{URL: "127.0.0.1", Port: 1})
	assert.ErrorIs(t, err, schema.ErrConnection)
}
