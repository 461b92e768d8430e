package store

import (
	"context"
	"sync"

	"account-dispenser/internal/dispenser"
)

// Memory keeps the encoded document in process memory. Nothing survives a restart.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) View(_ context.Context, fn func(doc *dispenser.Document) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return view(m.data, fn)
}

func (m *Memory) Update(_ context.Context, fn func(doc *dispenser.Document) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	encoded, err := apply(m.data, fn)
	if err != nil {
		return err
	}
	m.data = encoded
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
