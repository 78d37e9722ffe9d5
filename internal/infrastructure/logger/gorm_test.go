package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("error", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
		assert.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sqlFn, gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("slow query", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
		assert.Equal(t, 1, recorded.FilterLevelExact(zapcore.WarnLevel).Len())
	})

	t.Run("silent", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Silent)
		l.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("task id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Info)
		ctx := WithTaskID(context.Background(), "99")
		l.Trace(ctx, time.Now(), sqlFn, nil)
		entries := recorded.FilterMessage("SQL Query").All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "99", entries[0].ContextMap()["task_id"])
		}
	})
}

func TestGormLogger_TruncatesSQL(t *testing.T) {
	long := "SELECT " + strings.Repeat("x", 1000)
	fn := func() (string, int64) { return long, 0 }

	core, recorded := observer.New(zapcore.DebugLevel)
	NewGormLogger(zap.New(core), gormlogger.Info).Trace(context.Background(), time.Now(), fn, nil)
	sql := recorded.All()[0].ContextMap()["sql"].(string)
	assert.Len(t, sql, truncatedSQLLength+3)

	core, recorded = observer.New(zapcore.DebugLevel)
	NewGormLogger(zap.New(core), gormlogger.Info, WithFullSQL(true)).Trace(context.Background(), time.Now(), fn, nil)
	assert.Equal(t, long, recorded.All()[0].ContextMap()["sql"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}

var _ gormlogger.Interface = (*GormLogger)(nil)
