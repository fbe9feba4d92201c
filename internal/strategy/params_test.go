package strategy

import (
	"errors"
	"testing"

	"github.com/newthinker/swingbot/internal/core"
)

func TestConfig_Params(t *testing.T) {
	cfg := Config{Params: map[string]any{
		"int_from_yaml":   20,
		"int_from_string": "14",
		"float":           0.02,
		"float_from_int":  1,
		"name":            "GLD",
		"bad":             "x",
	}}

	if v, err := cfg.Int("int_from_yaml", 0); err != nil || v != 20 {
		t.Errorf("Int = %d, %v", v, err)
	}
	if v, err := cfg.Int("int_from_string", 0); err != nil || v != 14 {
		t.Errorf("Int from string = %d, %v", v, err)
	}
	if v, err := cfg.Float("float", 0); err != nil || v != 0.02 {
		t.Errorf("Float = %f, %v", v, err)
	}
	if v, err := cfg.Float("float_from_int", 0); err != nil || v != 1 {
		t.Errorf("Float from int = %f, %v", v, err)
	}
	if v, err := cfg.String("name", ""); err != nil || v != "GLD" {
		t.Errorf("String = %s, %v", v, err)
	}
	if v, _ := cfg.Int("missing", 7); v != 7 {
		t.Errorf("missing key should keep default, got %d", v)
	}
	if _, err := cfg.Float("bad", 0); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestParamReader_FirstError(t *testing.T) {
	cfg := Config{Params: map[string]any{"a": "nope", "b": "alsonope"}}
	a, b := 1, 2.0
	r := cfg.Reader()
	r.Int("a", &a)
	r.Float("b", &b)

	if !errors.Is(r.Err(), core.ErrConfigInvalid) {
		t.Fatalf("expected CONFIG_INVALID, got %v", r.Err())
	}
	if a != 1 || b != 2 {
		t.Errorf("defaults should be kept on error, got %d %f", a, b)
	}
}
