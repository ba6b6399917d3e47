package modelstore

import (
	"context"
	"fmt"
	"sync"

	"ecopulse-analytics-api/forecast"
)

// Memory is an in-process store, used by tests and one-shot CLI runs.
type Memory struct {
	mu     sync.RWMutex
	models map[string]*forecast.Params
}

func NewMemory(params ...*forecast.Params) *Memory {
	m := &Memory{models: make(map[string]*forecast.Params)}
	for _, p := range params {
		m.models[forecast.ModelKey(p.Target)] = p
	}
	return m
}

func (m *Memory) Load(_ context.Context, target string) (*forecast.Params, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.models[forecast.ModelKey(target)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", forecast.ErrModelNotFound, target)
	}
	return p, nil
}

func (m *Memory) Save(_ context.Context, p *forecast.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models[forecast.ModelKey(p.Target)] = p
	return nil
}
