// Package report renders backtest results as text and as archived
// summary.json, equity.csv and trades.csv artifacts.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/storage/archive"
)

// Artifact file names inside a run directory
const (
	SummaryFile = "summary.json"
	EquityFile  = "equity.csv"
	TradesFile  = "trades.csv"
)

// RunSummary is the content of summary.json
type RunSummary struct {
	ID             uuid.UUID               `json:"id"`
	Strategy       string                  `json:"strategy"`
	Symbols        []string                `json:"symbols"`
	Params         map[string]any          `json:"params,omitempty"`
	FillMode       backtest.FillMode       `json:"fill_mode"`
	Start          time.Time               `json:"start"`
	End            time.Time               `json:"end"`
	InitialCapital float64                 `json:"initial_capital"`
	Summary        backtest.Summary        `json:"summary"`
	Benchmark      *backtest.Summary       `json:"benchmark,omitempty"`
	OpenPositions  []broker.Position       `json:"open_positions"`
	Deficiencies   []broker.Deficiency     `json:"deficiencies,omitempty"`
	SkippedOrders  []backtest.SkippedOrder `json:"skipped_orders,omitempty"`
	Legs           int                     `json:"legs,omitempty"`
	ArchivedAt     time.Time               `json:"archived_at"`
}

// NewRunSummary extracts the summary of res
func NewRunSummary(res *backtest.Result) RunSummary {
	s := RunSummary{
		ID:             res.ID,
		Strategy:       res.Strategy,
		Symbols:        res.Symbols,
		Params:         res.Params,
		FillMode:       res.FillMode,
		Start:          res.Start,
		End:            res.End,
		InitialCapital: res.InitialCapital,
		Summary:        res.Summary,
		OpenPositions:  res.OpenPositions,
		Deficiencies:   res.Deficiencies,
		SkippedOrders:  res.SkippedOrders,
		Legs:           len(res.Legs),
	}
	if b, ok := res.BenchmarkSummary(); ok {
		s.Benchmark = &b
	}
	return s
}

// Archive writes and reads run artifacts under <strategy>/<run-id>/
type Archive struct {
	store archive.Storage
	now   func() time.Time
}

// NewArchive wraps a storage backend
func NewArchive(store archive.Storage) *Archive {
	return &Archive{store: store, now: time.Now}
}

// RunDir returns the directory of a run
func RunDir(strategy string, id uuid.UUID) string {
	return path.Join(strategy, id.String())
}

// Save writes the three artifacts of res and returns the run directory
func (a *Archive) Save(ctx context.Context, res *backtest.Result) (string, error) {
	dir := RunDir(res.Strategy, res.ID)

	summary := NewRunSummary(res)
	summary.ArchivedAt = a.now().UTC()
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	equity, err := EquityCSV(res.Equity, res.Benchmark)
	if err != nil {
		return "", err
	}
	trades, err := TradesCSV(res.Trades)
	if err != nil {
		return "", err
	}

	for name, body := range map[string][]byte{SummaryFile: data, EquityFile: equity, TradesFile: trades} {
		if err := a.store.Write(ctx, path.Join(dir, name), body); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}
	return dir, nil
}

// Load reads the summary of a run
func (a *Archive) Load(ctx context.Context, strategy string, id uuid.UUID) (*RunSummary, error) {
	data, err := a.store.Read(ctx, path.Join(RunDir(strategy, id), SummaryFile))
	if err != nil {
		return nil, err
	}
	var s RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, core.Errorf(core.ErrInvalidData, "summary of run %s: %v", id, err)
	}
	return &s, nil
}

// Runs lists the archived run ids of strategy
func (a *Archive) Runs(ctx context.Context, strategy string) ([]uuid.UUID, error) {
	paths, err := a.store.List(ctx, strategy)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, p := range paths {
		if path.Base(p) != SummaryFile {
			continue
		}
		id, err := uuid.Parse(path.Base(path.Dir(p)))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EquityCSV renders time,equity[,benchmark] rows
func EquityCSV(curve, benchmark backtest.EquityCurve) ([]byte, error) {
	header := []string{"time", "equity"}
	bench := make(map[int64]float64, len(benchmark))
	if len(benchmark) > 0 {
		header = append(header, "benchmark")
		for _, p := range benchmark {
			bench[p.Time.UnixNano()] = p.Value
		}
	}

	rows := [][]string{header}
	for _, p := range curve {
		row := []string{p.Time.Format(time.DateOnly), money(p.Value)}
		if len(benchmark) > 0 {
			if v, ok := bench[p.Time.UnixNano()]; ok {
				row = append(row, money(v))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return writeCSV(rows)
}

// TradesCSV renders the closed-trade log
func TradesCSV(trades []broker.TradeRecord) ([]byte, error) {
	rows := [][]string{{
		"symbol", "entry_time", "exit_time", "entry_price", "exit_price", "size",
		"holding_bars", "pnl", "return", "reason",
	}}
	for _, t := range trades {
		rows = append(rows, []string{
			t.Symbol,
			t.EntryTime.Format(time.DateOnly),
			t.ExitTime.Format(time.DateOnly),
			price(t.EntryPrice),
			price(t.ExitPrice),
			price(t.Size),
			fmt.Sprint(t.HoldingBars),
			money(t.PnL),
			price(t.Return),
			t.Reason,
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// money rounds to cents
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// price rounds to six places and trims trailing zeros
func price(v float64) string {
	s := decimal.NewFromFloat(v).Round(6).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
