package strategy

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/core"
)

// Factory creates a strategy with default parameters
type Factory func() Strategy

// Info describes a registered strategy
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Portfolio   bool   `json:"portfolio"`
	Lookback    int    `json:"lookback"`
}

// Engine manages the strategy factories available to runs. Every run gets
// a fresh instance, so per-run state never leaks between runs.
type Engine struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.Logger
}

// NewEngine creates a new strategy engine
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		factories: make(map[string]Factory),
		logger:    l,
	}
}

// Register adds a strategy factory under the name of the strategy it builds
func (e *Engine) Register(f Factory) {
	name := f().Name()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.factories[name] = f
	e.logger.Debug("strategy registered", zap.String("strategy", name))
}

// Has reports whether name is registered
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.factories[name]
	return ok
}

// New builds and initializes a fresh strategy instance
func (e *Engine) New(name string, cfg Config) (Strategy, error) {
	e.mu.RLock()
	f, ok := e.factories[name]
	e.mu.RUnlock()
	if !ok {
		return nil, core.Errorf(core.ErrStrategyNotFound, "%q", name)
	}

	s := f()
	if err := s.Init(cfg); err != nil {
		e.logger.Warn("strategy init failed",
			zap.String("strategy", name),
			zap.Error(err),
		)
		return nil, err
	}
	return s, nil
}

// Factory returns a factory that builds initialized instances of name
func (e *Engine) Factory(name string, cfg Config) (func() (Strategy, error), error) {
	if !e.Has(name) {
		return nil, core.Errorf(core.ErrStrategyNotFound, "%q", name)
	}
	return func() (Strategy, error) { return e.New(name, cfg) }, nil
}

// Names returns registered names in sorted order
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.factories))
	for name := range e.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll describes every registered strategy with default parameters
func (e *Engine) GetAll() []Info {
	names := e.Names()
	result := make([]Info, 0, len(names))

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, name := range names {
		s := e.factories[name]()
		req := s.RequiredData()
		result = append(result, Info{
			Name:        s.Name(),
			Description: s.Description(),
			Portfolio:   req.Portfolio,
			Lookback:    req.Lookback,
		})
	}
	return result
}
