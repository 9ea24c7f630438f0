package s0_data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/multibagger/internal/contracts"
)

const sampleBatch = `{
  "entities": [
    {"id": "ABC", "name": "Abc Corp", "sector": "Industrials", "status": "tracked"},
    {"id": "DEF", "name": "Def Inc", "sector": "Energy", "anchor": true, "status": "tracked"}
  ],
  "statements": [
    {"symbol": "ABC", "cadence": "quarterly", "fiscalDateEnding": "2024-09-30", "freeCashFlow": 60000000, "marketCap": "1000000000"}
  ],
  "valuations": {"ABC": 1000000000, "DEF": null},
  "timing": {"ABC": {"distance_from_low": 0.05, "momentum": -0.08}},
  "prices": {"DEF": [
    {"date": "2024-09-02T00:00:00Z", "high": 11, "low": 9, "close": 10},
    {"date": "2024-09-01T00:00:00Z", "high": 10, "low": 8, "close": 9}
  ]},
  "watchlist": [{"id": "GHI", "name": "Ghi Ltd", "sector": "Tech"}]
}`

func TestParseBatch(t *testing.T) {
	src, err := ParseBatch([]byte(sampleBatch))
	require.NoError(t, err)
	ctx := context.Background()

	entities, err := src.Entities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.True(t, entities[1].Anchor)
	assert.True(t, entities[0].IsTracked())

	statements, err := src.Statements(ctx)
	require.NoError(t, err)
	require.Len(t, statements, 1)

	record, err := NewNormalizer(NormalizerConfig{}).Normalize(statements[0])
	require.NoError(t, err)
	assert.Equal(t, contracts.Defined(6e7), record.FreeCashFlow)
	assert.Equal(t, contracts.Defined(1e9), record.MarketCap)

	valuations, err := src.Valuations(ctx)
	require.NoError(t, err)
	assert.Equal(t, contracts.Defined(1e9), valuations["ABC"])
	assert.False(t, valuations["DEF"].IsDefined())

	timing, err := src.Timing(ctx, "ABC")
	require.NoError(t, err)
	require.NotNil(t, timing)
	assert.Equal(t, contracts.Defined(-0.08), timing.Momentum)

	missing, err := src.Timing(ctx, "DEF")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bars, err := src.Bars(ctx, "DEF")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 9.0, bars[0].Close, "bars are sorted oldest first")
	assert.True(t, src.HasPrices())

	watch, err := src.Watchlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GHI", watch[0].ID)
}

func TestParseBatch_Invalid(t *testing.T) {
	_, err := ParseBatch([]byte(`{"entities": 5}`))
	assert.Error(t, err)
}

func TestFileSource_ReturnsCopies(t *testing.T) {
	src, err := ParseBatch([]byte(sampleBatch))
	require.NoError(t, err)
	ctx := context.Background()

	entities, _ := src.Entities(ctx)
	entities[0].Status = contracts.StatusUntracked

	again, _ := src.Entities(ctx)
	assert.Equal(t, contracts.StatusTracked, again[0].Status)
}
