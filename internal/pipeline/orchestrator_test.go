package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokersum/internal/blobstore"
	"brokersum/internal/cache"
	"brokersum/internal/config"
)

const testHeader = "STK_CODE;BUYER_CODE;SELLER_CODE;VOLUME;PRICE;TRADE_TYPE;TRADE_NO;TRADE_TIME;BUY_ORDER_NO;SELL_ORDER_NO"

func dayFile(rows ...string) []byte {
	return []byte(testHeader + "\n" + strings.Join(rows, "\n") + "\n")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := ConfigFromApp(config.PipelineConfig{
		InputPrefix:       "done-summary/",
		BatchSize:         2,
		MaxConcurrency:    2,
		OverlapMultiplier: 2,
		MarketOpenCutoff:  "08:58:00",
		HeapLimitMB:       0,
		ListRatePerSec:    1000,
		RetryMaxAttempts:  1,
	})
	return cfg
}

func newTestOrchestrator(store blobstore.Store) *Orchestrator {
	logger := testLogger()
	contentCache := cache.New(store, config.CacheConfig{
		TTL:            time.Minute,
		MaxBytes:       1 << 20,
		EvictionTarget: 0.9,
	}, logger, nil)
	return New(store, contentCache, nil, logger, nil, testConfig())
}

// flakyStore delegates to an inner store but fails Get for one key.
type flakyStore struct {
	blobstore.Store
	failKey string
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == s.failKey {
		return nil, errors.New("backend unavailable")
	}
	return s.Store.Get(ctx, key)
}

// brokenStore fails every List call.
type brokenStore struct {
	blobstore.Store
}

func (s *brokenStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	return nil, errors.New("listing denied")
}

func TestRun_EndToEnd(t *testing.T) {
	store := blobstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "done-summary/20240102/transactions.csv", dayFile(
		"AAAA;XA;YB;100;10;RG;T001;09:15:02;B01;S01",
		"AAAA;XA;YB;50;12;RG;T002;09:15:05;B02;S02",
	), "text/csv"))

	o := newTestOrchestrator(store)
	result, err := o.Run(ctx)

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, 0, result.ErrorCount)
	// One broker file per side plus one stock file.
	assert.Equal(t, 3, result.FilesCreated)

	for _, key := range []string{
		"broker_RG/broker_RG_20240102/XA.csv",
		"broker_RG/broker_RG_20240102/YB.csv",
		"stock_RG/stock_RG_20240102/AAAA.csv",
	} {
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists, key)
	}

	content, err := store.Get(ctx, "stock_RG/stock_RG_20240102/AAAA.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Broker,Stock,"))
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	store := blobstore.NewMemStore()
	ctx := context.Background()
	// All three trade types present, so every output prefix gets populated
	// and discovery can exclude the day on the second pass.
	require.NoError(t, store.Put(ctx, "done-summary/20240102/transactions.csv", dayFile(
		"AAAA;XA;YB;100;10;RG;T001;09:15:02;B01;S01",
		"AAAA;XA;YB;50;10;TN;T002;09:16:00;B02;S02",
		"AAAA;XA;YB;25;10;NG;T003;09:17:00;B03;S03",
	), "text/csv"))

	o := newTestOrchestrator(store)
	first, err := o.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.ProcessedCount)
	objectCount := store.Len()

	second, err := newTestOrchestrator(store).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ProcessedCount)
	assert.Equal(t, 1, second.SkippedCount)
	assert.Equal(t, 0, second.FilesCreated)
	assert.Equal(t, objectCount, store.Len())
}

func TestRun_ListFailureIsSetupError(t *testing.T) {
	store := &brokenStore{Store: blobstore.NewMemStore()}
	o := newTestOrchestrator(store)

	result, err := o.Run(context.Background())

	require.Error(t, err)
	assert.True(t, IsSetupError(err))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 0, result.ProcessedCount)
}

func TestRun_DayFailureIsIsolated(t *testing.T) {
	inner := blobstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, inner.Put(ctx, "done-summary/20240102/transactions.csv", dayFile(
		"AAAA;XA;YB;100;10;RG;T001;09:15:02;B01;S01",
	), "text/csv"))
	require.NoError(t, inner.Put(ctx, "done-summary/20240103/transactions.csv", dayFile(
		"BBBB;XA;YB;200;20;RG;T010;09:20:00;B10;S10",
	), "text/csv"))

	store := &flakyStore{Store: inner, failKey: "done-summary/20240102/transactions.csv"}
	o := newTestOrchestrator(store)
	result, err := o.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 1, result.ErrorCount)

	exists, err := inner.Exists(ctx, "stock_RG/stock_RG_20240103/BBBB.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_HeaderOnlyDayIsNotAnError(t *testing.T) {
	store := blobstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "done-summary/20240102/transactions.csv",
		[]byte(testHeader+"\n"), "text/csv"))

	o := newTestOrchestrator(store)
	result, err := o.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, 0, result.FilesCreated)
}

func TestRun_StopBeforeFirstBatch(t *testing.T) {
	store := blobstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "done-summary/20240102/transactions.csv", dayFile(
		"AAAA;XA;YB;100;10;RG;T001;09:15:02;B01;S01",
	), "text/csv"))

	o := newTestOrchestrator(store)
	o.Stop()
	result, err := o.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 0, result.FilesCreated)
}

func TestRun_CleansUpActiveDays(t *testing.T) {
	store := blobstore.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "done-summary/20240102/transactions.csv", dayFile(
		"AAAA;XA;YB;100;10;RG;T001;09:15:02;B01;S01",
	), "text/csv"))

	logger := testLogger()
	contentCache := cache.New(store, config.CacheConfig{
		TTL:            time.Minute,
		MaxBytes:       1 << 20,
		EvictionTarget: 0.9,
	}, logger, nil)
	o := New(store, contentCache, nil, logger, nil, testConfig())

	_, err := o.Run(ctx)
	require.NoError(t, err)
	assert.False(t, contentCache.IsActive("20240102"))
}

func TestPipelineError_Classification(t *testing.T) {
	setup := NewSetupError("list input prefix", errors.New("denied"))
	assert.True(t, IsSetupError(setup))
	assert.Contains(t, setup.Error(), "setup")

	day := NewDayError("20240102", errors.New("boom"))
	assert.False(t, IsSetupError(day))
	assert.Contains(t, day.Error(), "20240102")
	assert.ErrorContains(t, day, "boom")
}
