package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/storage/archive"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func sampleResult() *backtest.Result {
	equity := backtest.EquityCurve{
		{Time: day0, Value: 100000},
		{Time: day0.AddDate(0, 0, 1), Value: 101000.456},
		{Time: day0.AddDate(0, 0, 2), Value: 99000},
	}
	trades := []broker.TradeRecord{{
		Symbol: "SPY", EntryPrice: 100, ExitPrice: 101.5, Size: 10,
		EntryTime: day0, ExitTime: day0.AddDate(0, 0, 1), HoldingBars: 1,
		PnL: 15, Return: 0.015, Reason: "rsi_exit",
	}}
	res := &backtest.Result{
		ID:             uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f"),
		Strategy:       "momentum",
		Symbols:        []string{"SPY"},
		Params:         map[string]any{"ema_fast": 10},
		FillMode:       backtest.FillClose,
		Start:          day0,
		End:            day0.AddDate(0, 0, 2),
		InitialCapital: 100000,
		Equity:         equity,
		Benchmark:      equity[:2],
		Trades:         trades,
	}
	res.Summary = backtest.CalculateStats(equity, trades)
	return res
}

func TestArchive_SaveLoad(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	a := NewArchive(store)
	a.now = func() time.Time { return day0 }
	ctx := context.Background()
	res := sampleResult()

	dir, err := a.Save(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, "momentum/6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f", dir)

	for _, name := range []string{SummaryFile, EquityFile, TradesFile} {
		ok, err := store.Exists(ctx, dir+"/"+name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	loaded, err := a.Load(ctx, "momentum", res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, loaded.ID)
	assert.Equal(t, res.Summary.TotalTrades, loaded.Summary.TotalTrades)
	assert.InDelta(t, res.Summary.TotalReturn, loaded.Summary.TotalReturn, 1e-12)
	assert.Equal(t, day0, loaded.ArchivedAt)
	require.NotNil(t, loaded.Benchmark)

	ids, err := a.Runs(ctx, "momentum")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{res.ID}, ids)

	_, err = a.Load(ctx, "momentum", uuid.New())
	assert.True(t, errors.Is(err, core.ErrArtifactNotFound))
}

func TestEquityCSV(t *testing.T) {
	res := sampleResult()
	data, err := EquityCSV(res.Equity, res.Benchmark)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "time,equity,benchmark", lines[0])
	assert.Equal(t, "2024-01-02,100000.00,100000.00", lines[1])
	assert.Equal(t, "2024-01-03,101000.46,101000.46", lines[2])
	assert.Equal(t, "2024-01-04,99000.00,", lines[3])
}

func TestTradesCSV(t *testing.T) {
	data, err := TradesCSV(sampleResult().Trades)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "SPY,2024-01-02,2024-01-03,100,101.5,10,1,15.00,0.015,rsi_exit", lines[1])
}

func TestSummaryJSON_SharpeNull(t *testing.T) {
	res := sampleResult()
	res.Summary.Sharpe = nil
	data, err := json.Marshal(NewRunSummary(res))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sharpe":null`)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "2024-01-02 to 2024-01-04 (3 bars)")
	assert.Contains(t, out, "-1.00%")
	assert.Contains(t, out, "Benchmark return:")
	assert.Contains(t, out, "1 (1 won, 0 lost)")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "12.35%", Percent(0.12345))
	assert.Equal(t, "-5.00%", Percent(-0.05))
	assert.Equal(t, "n/a", Ratio(nil))
	v := 1.23456
	assert.Equal(t, "1.23", Ratio(&v))
	assert.Equal(t, "0.1", price(0.1))
	assert.Equal(t, "3", price(3))
}

func TestSweepTable(t *testing.T) {
	res := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, SweepTable(&buf, []backtest.SweepResult{
		{Index: 0, Params: map[string]any{"b": 2, "a": 1}, Result: res},
		{Index: 1, Params: map[string]any{"a": "x"}, Error: "bad param"},
	}))
	out := buf.String()
	assert.Contains(t, out, "a=1 b=2")
	assert.Contains(t, out, "bad param")
}
