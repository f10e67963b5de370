package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/skeld-engine/pkg/belief"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/reward"
)

// MockStore is an in-memory Store for tests and the offline simulator.
type MockStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*game.Session
	rewards  map[uuid.UUID][]reward.Record
	beliefs  map[uuid.UUID]map[game.PlayerID]belief.Matrix

	PingErr error
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[uuid.UUID]*game.Session),
		rewards:  make(map[uuid.UUID][]reward.Record),
		beliefs:  make(map[uuid.UUID]map[game.PlayerID]belief.Matrix),
	}
}

func (m *MockStore) Ping(ctx context.Context) error { return m.PingErr }
func (m *MockStore) Close() error                   { return nil }

func (m *MockStore) SaveSession(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MockStore) LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id], nil
}

func (m *MockStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.rewards, id)
	delete(m.beliefs, id)
	return nil
}

func (m *MockStore) AppendRewards(ctx context.Context, id uuid.UUID, recs []reward.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards[id] = append(m.rewards[id], recs...)
	return nil
}

func (m *MockStore) ListRewards(ctx context.Context, id uuid.UUID) ([]reward.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]reward.Record, len(m.rewards[id]))
	copy(out, m.rewards[id])
	return out, nil
}

func (m *MockStore) SaveBeliefs(ctx context.Context, id uuid.UUID, snapshots map[game.PlayerID]belief.Matrix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beliefs[id] = snapshots
	return nil
}

func (m *MockStore) LoadBeliefs(ctx context.Context, id uuid.UUID) (map[game.PlayerID]belief.Matrix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beliefs[id], nil
}
