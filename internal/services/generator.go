package services

import (
	"context"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/prompts"
)

// Candidate is a well-formed action proposal from the generation layer.
// Parsing raw model output into this shape is the generation layer's
// job; the core only validates semantic content.
type Candidate struct {
	Action game.EventKind            `json:"action,omitempty"` // empty for speech-only turns
	Target game.PlayerID             `json:"target,omitempty"`
	Room   game.RoomID               `json:"room,omitempty"`
	Alibi  game.RoomID               `json:"alibi,omitempty"` // impostor cover story, recorded in the deception ledger
	Speech string                    `json:"speech,omitempty"`
	Belief map[game.PlayerID]float64 `json:"belief,omitempty"` // model's own estimate, logged only
}

// ActionGenerator is the external model-invocation layer.
type ActionGenerator interface {
	// Generate produces a candidate action/speech for the composed
	// agent context. The context carries the regeneration notice on
	// retries.
	Generate(ctx context.Context, agentCtx prompts.AgentContext) (*Candidate, error)

	// Ready reports whether the backing model can serve requests.
	Ready(ctx context.Context) (bool, error)
}
