package broker_test

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
)

func TestRiskSize(t *testing.T) {
	tests := []struct {
		name    string
		risk    float64
		cash    float64
		atr     float64
		want    float64
		wantErr bool
	}{
		{name: "normal", risk: 0.01, cash: 100000, atr: 2, want: 500},
		{name: "zero atr", risk: 0.01, cash: 100000, atr: 0, wantErr: true},
		{name: "nan atr", risk: 0.01, cash: 100000, atr: math.NaN(), wantErr: true},
		{name: "zero risk", risk: 0, cash: 100000, atr: 2, wantErr: true},
		{name: "negative cash", risk: 0.01, cash: -10, atr: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := broker.RiskSize(tt.risk, tt.cash, tt.atr)
			if tt.wantErr {
				if !errors.Is(err, core.ErrSizing) {
					t.Errorf("expected SIZING_FAILED, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAllInSize(t *testing.T) {
	got, err := broker.AllInSize(1000, 50)
	if err != nil || got != 20 {
		t.Errorf("AllInSize(1000, 50) = %f, %v", got, err)
	}
	if _, err := broker.AllInSize(1000, 0); !errors.Is(err, core.ErrSizing) {
		t.Errorf("expected SIZING_FAILED for zero price, got %v", err)
	}
}
