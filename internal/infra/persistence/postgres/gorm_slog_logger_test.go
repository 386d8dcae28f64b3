package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferedQueryLogger(debug bool) (logger.Interface, *bytes.Buffer) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return newQueryLogger(base, debug), &buf
}

func statement() (string, int64) {
	return `SELECT * FROM "kv_entries" WHERE key = 'foodbridge-donations'`, 1
}

func TestQueryLogger_Trace(t *testing.T) {
	ctx := context.Background()

	l, buf := newBufferedQueryLogger(false)
	l.Trace(ctx, time.Now(), statement, nil)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), statement, assertErr("connection reset"))
	assert.Contains(t, buf.String(), "Store statement failed")
	assert.Contains(t, buf.String(), "connection reset")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
	assert.Contains(t, buf.String(), "Slow store statement")
}

func TestQueryLogger_DebugLogsEveryStatement(t *testing.T) {
	l, buf := newBufferedQueryLogger(true)
	l.Trace(context.Background(), time.Now(), statement, nil)

	assert.Contains(t, buf.String(), "kv_entries")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), statement, assertErr("boom"))
	assert.Empty(t, buf.String())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
