package ygggo_mysql_pool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, m *PoolManager) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	m.SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	m.EnableLogging(true)
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line: %s", line)
		out = append(out, entry)
	}
	return out
}

func TestLogging_AcquireAndReleaseEvents(t *testing.T) {
	m, _ := newTestManager(t, nil)
	buf := captureLogs(t, m)
	ctx := context.Background()

	require.NoError(t, m.WithConn(ctx, "lake", func(conn PooledConn) error {
		return conn.Commit(ctx)
	}))

	entries := logLines(t, buf)
	require.Len(t, entries, 2)

	acquire := entries[0]
	assert.Equal(t, "pool acquire", acquire["msg"])
	assert.Equal(t, "success", acquire["status"])
	assert.Equal(t, "db.test/etl/lake", acquire["target"])

	release := entries[1]
	assert.Equal(t, "pool release", release["msg"])
	assert.Equal(t, "recycled", release["outcome"])
	assert.Equal(t, false, release["caller_failed"])
	assert.Contains(t, release, "held_ms")
}

func TestLogging_DiscardAndCallerFailure(t *testing.T) {
	m, f := newTestManager(t, nil)
	ctx := context.Background()
	require.NoError(t, m.WithConn(ctx, "lake", func(conn PooledConn) error {
		return conn.Commit(ctx)
	}))

	buf := captureLogs(t, m)
	f.conn(0).setPingErr(errors.New("gone"))

	boom := errors.New("caller failed")
	err := m.WithConn(ctx, "lake", func(conn PooledConn) error { return boom })
	require.ErrorIs(t, err, boom)

	var sawDiscard, sawCallerFailed bool
	for _, e := range logLines(t, buf) {
		switch e["msg"] {
		case "connection discarded":
			sawDiscard = true
			assert.Equal(t, "dead on borrow", e["reason"])
		case "pool release":
			sawCallerFailed = e["caller_failed"] == true
		}
	}
	assert.True(t, sawDiscard, "dead-on-borrow discard should be logged")
	assert.True(t, sawCallerFailed, "release log should carry the caller failure flag")
}

func TestLogging_DisabledByDefault(t *testing.T) {
	m, _ := newTestManager(t, nil)
	var buf bytes.Buffer
	m.SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	ctx := context.Background()

	require.NoError(t, m.WithConn(ctx, "lake", func(conn PooledConn) error {
		return conn.Commit(ctx)
	}))
	assert.Zero(t, buf.Len(), "logging must be opt-in")
}
