package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokersum/internal/blobstore"
	"brokersum/internal/summary"
	"brokersum/internal/tickdata"
)

func TestOutputLayout(t *testing.T) {
	assert.Equal(t, "broker_RG/broker_RG_20240102/",
		OutputPrefix(summary.PivotBroker, tickdata.TradeTypeRegular, "20240102"))
	assert.Equal(t, "stock_NG/stock_NG_20240102/YP.csv",
		OutputKey(summary.PivotStock, tickdata.TradeTypeNegotiated, "20240102", "YP"))
}

func TestHasOutput(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemStore()
	checker := NewChecker(store, nil)

	has, err := checker.HasOutput(ctx, summary.PivotBroker, tickdata.TradeTypeRegular, "20240102")
	require.NoError(t, err)
	assert.False(t, has)

	key := OutputKey(summary.PivotBroker, tickdata.TradeTypeRegular, "20240102", "X")
	require.NoError(t, store.Put(ctx, key, []byte("header\n"), "text/csv"))

	has, err = checker.HasOutput(ctx, summary.PivotBroker, tickdata.TradeTypeRegular, "20240102")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDayComplete_RequiresEveryPrefix(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemStore()
	checker := NewChecker(store, nil)
	types := tickdata.TradeTypes()

	populate := func(t_ tickdata.TradeType, pivots ...summary.Pivot) {
		for _, pivot := range pivots {
			key := OutputKey(pivot, t_, "20240102", "X")
			require.NoError(t, store.Put(ctx, key, []byte("h\n"), "text/csv"))
		}
	}

	complete, err := checker.DayComplete(ctx, "20240102", types)
	require.NoError(t, err)
	assert.False(t, complete)

	// Populate all but one prefix: still incomplete.
	populate(tickdata.TradeTypeRegular, summary.PivotBroker, summary.PivotStock)
	populate(tickdata.TradeTypeCash, summary.PivotBroker, summary.PivotStock)
	populate(tickdata.TradeTypeNegotiated, summary.PivotBroker)

	complete, err = checker.DayComplete(ctx, "20240102", types)
	require.NoError(t, err)
	assert.False(t, complete)

	populate(tickdata.TradeTypeNegotiated, summary.PivotStock)

	complete, err = checker.DayComplete(ctx, "20240102", types)
	require.NoError(t, err)
	assert.True(t, complete)
}
