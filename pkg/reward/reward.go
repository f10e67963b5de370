// Package reward computes the scalar turn reward with a strict
// priority order: terminal rewards end resolution immediately, then
// social/cognitive signals, then role-specific action tables.
package reward

import (
	"log/slog"

	"github.com/jwebster45206/skeld-engine/pkg/game"
)

// Category tags a reward record for auditability.
type Category string

const (
	CategoryTerminal Category = "terminal"
	CategorySocial   Category = "social"
	CategoryAction   Category = "action"
)

// Action is the action portion of a turn outcome.
type Action struct {
	Kind         game.EventKind `json:"kind"`
	WitnessCount int            `json:"witness_count"`
}

// Outcome describes everything reward-relevant that happened in one
// agent turn. Social fields come from the judge and the vote resolver;
// the action comes from the engine's accepted-action report.
type Outcome struct {
	Role  game.Role `json:"role"`
	Team  game.Team `json:"team"`
	Alive bool      `json:"alive"`

	Hallucination bool       `json:"hallucination,omitempty"`
	LieSuccess    bool       `json:"lie_success,omitempty"`    // impostor: unchallenged lie
	LieRefuted    bool       `json:"lie_refuted,omitempty"`    // impostor: lie called out
	VoteTarget    *game.Role `json:"vote_target,omitempty"`    // confirmed role of the voted player
	SurvivedVote  bool       `json:"survived_vote,omitempty"`  // impostor survived a vote

	Action *Action `json:"action,omitempty"` // nil when the turn had no action
}

// Record is one append-only reward log entry. Never mutated after write.
type Record struct {
	Agent    game.PlayerID `json:"agent"`
	Timestep int           `json:"timestep"`
	Value    float64       `json:"value"`
	Category Category      `json:"category"`
}

// Engine resolves turn rewards and keeps the per-game audit log.
type Engine struct {
	logger  *slog.Logger
	records []Record
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Records returns a copy of the audit log.
func (e *Engine) Records() []Record {
	out := make([]Record, len(e.records))
	copy(out, e.records)
	return out
}

// Reward resolves the scalar reward for one agent turn. The Critical
// State predicate is recomputed from the snapshot on every call.
func (e *Engine) Reward(agent game.PlayerID, snap game.Snapshot, out Outcome) (float64, Category) {
	value, category := resolve(snap, out)
	e.records = append(e.records, Record{
		Agent:    agent,
		Timestep: snap.Timestep,
		Value:    value,
		Category: category,
	})
	e.logger.Debug("reward resolved",
		"agent", agent,
		"timestep", snap.Timestep,
		"value", value,
		"category", category)
	return value, category
}

func resolve(snap game.Snapshot, out Outcome) (float64, Category) {
	// Terminal rewards end resolution: a turn that both ends the game
	// and contains an action returns only the terminal reward.
	if snap.Winner != nil {
		switch {
		case out.Team == game.Team(*snap.Winner) && out.Alive:
			return 50, CategoryTerminal
		case out.Team == game.Team(*snap.Winner):
			return 30, CategoryTerminal // martyr bonus
		default:
			return -20, CategoryTerminal
		}
	}

	social, hasSocial := socialReward(out)
	action := actionReward(snap, out)

	total := social + action
	if hasSocial {
		return total, CategorySocial
	}
	return total, CategoryAction
}

func socialReward(out Outcome) (float64, bool) {
	v := 0.0
	fired := false

	if out.Hallucination {
		// Dominates all action rewards; applied on top of them.
		v -= 100
		fired = true
	}

	if out.Role == game.RoleImpostor {
		if out.LieSuccess {
			v += 2
			fired = true
		}
		if out.LieRefuted {
			v -= 5
			fired = true
		}
		if out.SurvivedVote {
			v += 10
			fired = true
		}
	}

	if out.VoteTarget != nil {
		switch {
		case out.Role == game.RoleCrewmate && *out.VoteTarget == game.RoleImpostor:
			v += 5
			fired = true
		case out.Role == game.RoleCrewmate && *out.VoteTarget == game.RoleCrewmate:
			v -= 2
			fired = true
		case out.Role == game.RoleImpostor && *out.VoteTarget == game.RoleCrewmate:
			v += 3 // framed a crewmate while looking innocent
			fired = true
		}
	}

	return v, fired
}

func actionReward(snap game.Snapshot, out Outcome) float64 {
	if out.Action == nil {
		return 0 // turn skipped
	}
	if out.Role == game.RoleImpostor {
		return impostorAction(*out.Action)
	}
	return crewmateAction(*out.Action, snap.Critical())
}

func impostorAction(a Action) float64 {
	switch a.Kind {
	case game.EventKill:
		if a.WitnessCount == 0 {
			return 15 // unseen kill bonus
		}
		return 10 - 8*float64(a.WitnessCount)
	case game.EventVent:
		// Binary witness split; no graded scaling like KILL.
		if a.WitnessCount == 0 {
			return 1
		}
		return -10
	case game.EventReportBody:
		return 3 // self-report
	case game.EventFakeTask:
		return 2
	case game.EventSabotage:
		return 1
	case game.EventFixSabotage:
		return 1 // blending in
	default:
		return 0
	}
}

func crewmateAction(a Action, critical bool) float64 {
	switch a.Kind {
	case game.EventCompleteTask:
		if critical {
			return 5
		}
		return 2
	case game.EventFixSabotage:
		return 3
	case game.EventReportBody:
		return 2
	case game.EventDie:
		if critical {
			return -50
		}
		return -15
	default:
		return 0
	}
}
