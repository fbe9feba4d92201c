package rebalance

import (
	"math"
	"testing"
)

func TestScores_ClampNegativeMomentum(t *testing.T) {
	weights, ok := Normalize(Scores([]float64{0.02, 0.0, -0.01}, []float64{0.1, 0.1, 0.1}))
	if !ok {
		t.Fatal("expected a positive allocation")
	}
	want := []float64{1, 0, 0}
	for i := range want {
		if math.Abs(weights[i]-want[i]) > 1e-12 {
			t.Errorf("weights = %v, want %v", weights, want)
			break
		}
	}
}

func TestScores_VolatilityWeighting(t *testing.T) {
	weights, _ := Normalize(Scores([]float64{0.02, 0.02}, []float64{0.01, 0.03}))
	// 2 / (2 + 2/3) = 0.75
	if math.Abs(weights[0]-0.75) > 1e-12 || math.Abs(weights[1]-0.25) > 1e-12 {
		t.Errorf("unexpected weights %v", weights)
	}
}

func TestScores_ZeroVolatilityFloored(t *testing.T) {
	scores := Scores([]float64{0.01}, []float64{0})
	if scores[0] != 0.01/minVolatility {
		t.Errorf("expected floored volatility, got %v", scores[0])
	}
}

func TestNormalize_NoPositive(t *testing.T) {
	weights, ok := Normalize(Scores([]float64{-0.01, 0}, nil))
	if ok {
		t.Error("expected no allocation")
	}
	for _, w := range weights {
		if w != 0 {
			t.Errorf("expected zero weights, got %v", weights)
		}
	}
}

func TestSchedule(t *testing.T) {
	s := newSchedule(3)
	var due []int
	for i := 1; i <= 12; i++ {
		s.tick()
		if s.due(5) {
			due = append(due, i)
			s.done()
		}
	}
	want := []int{6, 9, 12}
	if len(due) != len(want) {
		t.Fatalf("due on %v, want %v", due, want)
	}
	for i := range want {
		if due[i] != want[i] {
			t.Errorf("due on %v, want %v", due, want)
		}
	}
}
