package strategy

import (
	"github.com/spf13/cast"

	"github.com/newthinker/swingbot/internal/core"
)

// Int reads an integer parameter, keeping def when absent
func (c Config) Int(key string, def int) (int, error) {
	v, ok := c.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def, core.Errorf(core.ErrConfigInvalid, "param %s: %v", key, err)
	}
	return n, nil
}

// Float reads a float parameter, keeping def when absent
func (c Config) Float(key string, def float64) (float64, error) {
	v, ok := c.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def, core.Errorf(core.ErrConfigInvalid, "param %s: %v", key, err)
	}
	return f, nil
}

// String reads a string parameter, keeping def when absent
func (c Config) String(key string, def string) (string, error) {
	v, ok := c.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def, core.Errorf(core.ErrConfigInvalid, "param %s: %v", key, err)
	}
	return s, nil
}

// ParamReader collects the first error over a sequence of reads
type ParamReader struct {
	cfg Config
	err error
}

// Reader returns a reader over cfg
func (c Config) Reader() *ParamReader {
	return &ParamReader{cfg: c}
}

func (r *ParamReader) Int(key string, dst *int) {
	v, err := r.cfg.Int(key, *dst)
	r.keep(err)
	*dst = v
}

func (r *ParamReader) Float(key string, dst *float64) {
	v, err := r.cfg.Float(key, *dst)
	r.keep(err)
	*dst = v
}

func (r *ParamReader) String(key string, dst *string) {
	v, err := r.cfg.String(key, *dst)
	r.keep(err)
	*dst = v
}

// Positive fails when any of the named values is not > 0
func (r *ParamReader) Positive(key string, v float64) {
	if v <= 0 {
		r.keep(core.Errorf(core.ErrConfigInvalid, "param %s must be > 0, got %v", key, v))
	}
}

// AtLeast fails when v is below min
func (r *ParamReader) AtLeast(key string, v, min float64) {
	if v < min {
		r.keep(core.Errorf(core.ErrConfigInvalid, "param %s must be >= %v, got %v", key, min, v))
	}
}

// Err returns the first error seen
func (r *ParamReader) Err() error {
	return r.err
}

func (r *ParamReader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}
