package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/prompts"
	"github.com/jwebster45206/skeld-engine/pkg/speech"
)

// MockGenerator is a scriptable ActionGenerator for tests and offline
// simulation runs.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, agentCtx prompts.AgentContext) (*Candidate, error)
	ReadyFunc    func(ctx context.Context) (bool, error)

	// Track calls for testing
	GenerateCalls []prompts.AgentContext

	mu sync.Mutex
}

var _ ActionGenerator = (*MockGenerator)(nil)

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, agentCtx prompts.AgentContext) (*Candidate, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, agentCtx)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, agentCtx)
	}

	// Default behavior: safe filler in meetings, task work otherwise.
	if agentCtx.Meeting != nil {
		return &Candidate{Speech: speech.Fallback}, nil
	}
	if agentCtx.Role == game.RoleImpostor {
		return &Candidate{Action: game.EventFakeTask, Room: agentCtx.Location}, nil
	}
	return &Candidate{Action: game.EventCompleteTask, Room: agentCtx.Location}, nil
}

func (m *MockGenerator) Ready(ctx context.Context) (bool, error) {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return true, nil
}

// Calls returns a copy of the recorded generate calls.
func (m *MockGenerator) Calls() []prompts.AgentContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]prompts.AgentContext, len(m.GenerateCalls))
	copy(out, m.GenerateCalls)
	return out
}
