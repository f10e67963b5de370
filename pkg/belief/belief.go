// Package belief maintains per-agent Theory-of-Mind matrices: suspicion
// scores for crewmates, perceived-threat scores for impostors. Updates
// are deterministic table lookups, never model output.
package belief

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

// Matrix maps other players to a bounded score in [0.0, 1.0].
// Semantics depend on the owner's role: suspicion for crewmates,
// perceived threat for impostors.
type Matrix map[game.PlayerID]float64

const neutral = 0.5

// Multipliers and overrides for witnessed events. KILL and VENT are
// hard evidence and override the prior entirely.
const (
	sabotageFactor = 1.25
	fakeTaskFactor = 1.10
	clearFactor    = 0.90
)

// Model owns one matrix per agent, arena-held and indexed by player ID.
type Model struct {
	logger   *slog.Logger
	shipMap  *game.ShipMap
	roles    map[game.PlayerID]game.Role
	matrices map[game.PlayerID]Matrix
}

// NewModel initializes uniform matrices (0.5 = neutral) for every
// player against every other player.
func NewModel(players []game.Player, shipMap *game.ShipMap, logger *slog.Logger) *Model {
	m := &Model{
		logger:   logger,
		shipMap:  shipMap,
		roles:    make(map[game.PlayerID]game.Role, len(players)),
		matrices: make(map[game.PlayerID]Matrix, len(players)),
	}
	for _, p := range players {
		m.roles[p.ID] = p.Role
		mat := make(Matrix, len(players)-1)
		for _, q := range players {
			if q.ID != p.ID {
				mat[q.ID] = neutral
			}
		}
		m.matrices[p.ID] = mat
	}
	return m
}

// Snapshot returns a copy of one agent's matrix for logging or for the
// generator context overlay. The live matrix is never handed out.
func (m *Model) Snapshot(agent game.PlayerID) Matrix {
	src := m.matrices[agent]
	if src == nil {
		return nil
	}
	out := make(Matrix, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// SuspicionOf returns how suspicious the whole crew currently is of one
// player: the count of agents whose entry for them is above neutral.
// Derived lookup over the arena; never stored as a back-reference.
func (m *Model) SuspicionOf(target game.PlayerID) int {
	n := 0
	for owner, mat := range m.matrices {
		if owner == target {
			continue
		}
		if v, ok := mat[target]; ok && v > neutral {
			n++
		}
	}
	return n
}

// Update applies one observed event to the agent's matrix and returns
// the updated matrix. Events the agent did not witness (no co-presence
// in the acting room at the event timestep) leave the matrix untouched.
// Invalid events are rejected at the boundary without mutation.
func (m *Model) Update(agent game.PlayerID, ev game.Event, led *ledger.Ledger) (Matrix, error) {
	mat := m.matrices[agent]
	if mat == nil {
		return nil, fmt.Errorf("unknown agent %q", agent)
	}
	if _, ok := m.roles[ev.Actor]; !ok {
		m.logger.Warn("belief update rejected", "agent", agent, "actor", ev.Actor, "reason", "unknown actor")
		return mat, fmt.Errorf("unknown actor %q", ev.Actor)
	}
	if !m.shipMap.Has(ev.Room) {
		m.logger.Warn("belief update rejected", "agent", agent, "room", ev.Room, "reason", "unknown room")
		return mat, fmt.Errorf("unknown room %q", ev.Room)
	}

	if led == nil || !led.WasPresent(ev.Room, ev.Timestep) {
		return mat, nil // outside line of sight
	}

	switch m.roles[agent] {
	case game.RoleCrewmate:
		if ev.Actor != agent {
			m.applyCrew(mat, ev)
		}
	case game.RoleImpostor:
		// Impostors track threat, not suspicion: an entry moves only
		// when that player witnessed the impostor's own incriminating act.
		if ev.Actor == agent {
			for _, w := range ev.Witnesses {
				m.applyThreat(mat, w, ev.Kind)
			}
		}
	}
	return mat, nil
}

func (m *Model) applyCrew(mat Matrix, ev game.Event) {
	cur, ok := mat[ev.Actor]
	if !ok {
		cur = neutral
	}
	switch ev.Kind {
	case game.EventKill, game.EventVent:
		cur = 1.0 // hard evidence overrides any prior
	case game.EventSabotage:
		cur *= sabotageFactor
	case game.EventFakeTask:
		cur *= fakeTaskFactor
	case game.EventVisualTask, game.EventCompleteTask:
		cur *= clearFactor
	default:
		return
	}
	mat[ev.Actor] = clamp(cur)
}

func (m *Model) applyThreat(mat Matrix, witness game.PlayerID, kind game.EventKind) {
	cur, ok := mat[witness]
	if !ok {
		return
	}
	switch kind {
	case game.EventKill, game.EventVent:
		cur = 1.0
	case game.EventSabotage:
		cur *= sabotageFactor
	case game.EventFakeTask:
		cur *= fakeTaskFactor
	default:
		return
	}
	mat[witness] = clamp(cur)
}

func clamp(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
