package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"ema_fast=10", " risk = 0.02 ", "safe="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ema_fast": "10", "risk": "0.02", "safe": ""}, params)

	_, err = parseParams([]string{"ema_fast"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=5"})
	assert.Error(t, err)
}

func TestRunFlags_Request(t *testing.T) {
	f := runFlags{symbols: []string{"SPY"}, from: "2024-01-02", params: []string{"period=20"}}
	req, err := f.request("donchian")
	require.NoError(t, err)
	assert.Equal(t, "donchian", req.Strategy)
	assert.Equal(t, "20", req.Params["period"])
	assert.True(t, req.End.IsZero())

	f.to = "2023-01-01"
	_, err = f.request("donchian")
	assert.Error(t, err, "end before start")

	f.to = "01/02/2024"
	_, err = f.request("donchian")
	assert.Error(t, err)
}

func TestBacktestCommand(t *testing.T) {
	dataDir := t.TempDir()
	var csv strings.Builder
	csv.WriteString("Date,Open,High,Low,Close,Volume\n")
	for i := 0; i < 5; i++ {
		c := 100 + i
		fmt.Fprintf(&csv, "2024-01-%02d,%d,%d,%d,%d,1000\n", i+2, c, c, c, c)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "SPY.csv"), []byte(csv.String()), 0o644))

	cfgPath := filepath.Join(t.TempDir(), "swingbot.yaml")
	cfgYAML := fmt.Sprintf("data:\n  source: csv\n  dir: %s\nmetrics:\n  enabled: false\n", dataDir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"backtest", "buy_hold", "-c", cfgPath, "--symbols", "SPY", "--from", "2024-01-01", "--benchmark"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "buy_hold")
	assert.Contains(t, out.String(), "Benchmark return:")
	assert.Contains(t, out.String(), "(5 bars)")
}

func TestStrategiesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"strategies"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "safe_rebalance")
	assert.Contains(t, out.String(), "portfolio")
}
