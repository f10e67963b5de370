package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/skeld-engine/pkg/belief"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/reward"
)

// Store persists per-game decision-support state: the session record,
// the append-only reward log, and belief-matrix snapshots (exported
// for logging and visualization, never consumed by the engine).
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	SaveSession(ctx context.Context, s *game.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// AppendRewards adds records to the audit log; existing entries
	// are never rewritten.
	AppendRewards(ctx context.Context, id uuid.UUID, recs []reward.Record) error
	ListRewards(ctx context.Context, id uuid.UUID) ([]reward.Record, error)

	SaveBeliefs(ctx context.Context, id uuid.UUID, snapshots map[game.PlayerID]belief.Matrix) error
	LoadBeliefs(ctx context.Context, id uuid.UUID) (map[game.PlayerID]belief.Matrix, error)
}
