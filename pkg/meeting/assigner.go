package meeting

import (
	"math/rand"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

// Assigner computes discussion roles from evidence state. The RNG is
// seeded by the caller so runs stay reproducible.
type Assigner struct {
	rng *rand.Rand
}

func NewAssigner(seed int64) *Assigner {
	return &Assigner{rng: rand.New(rand.NewSource(seed))}
}

// Assign picks the discussion role for one agent in the current round.
//
// Crewmate priority stack, highest match wins: accused with eyewitness
// evidence → Counter-Attacker; accused → Defender; witnessed a
// kill/vent → Prosecutor; holds location data → Detective; else
// Bystander. Impostors never get Prosecutor: accused → Defender; holds
// a (possibly fabricated) witnessed claim → Detective; otherwise a
// uniform-random pick between Detective and Bystander.
func (a *Assigner) Assign(p game.Player, led *ledger.Ledger, st *State) Role {
	accused := st.IsAccused(p.ID)
	witnessed := led != nil && (led.SawKill() || led.SawVent())
	hasLocationData := led != nil && len(led.Presence) > 0

	if p.Role == game.RoleImpostor {
		switch {
		case accused:
			return RoleDefender
		case witnessed || (led != nil && led.Deception != nil):
			return RoleDetective
		default:
			if a.rng.Intn(2) == 0 {
				return RoleDetective
			}
			return RoleBystander
		}
	}

	switch {
	case accused && witnessed:
		return RoleCounterAttacker
	case accused:
		return RoleDefender
	case witnessed:
		return RoleProsecutor
	case hasLocationData:
		return RoleDetective
	default:
		return RoleBystander
	}
}

// AssignAll assigns every living, non-ejected agent a role and a
// distinct style among agents sharing that role. Invoked once at the
// start of each stage; iteration follows roster (player index) order
// so assignments are deterministic for a given seed.
func (a *Assigner) AssignAll(players []game.Player, ledgerOf func(game.PlayerID) *ledger.Ledger, st *State) map[game.PlayerID]Assignment {
	out := make(map[game.PlayerID]Assignment, len(players))
	perRole := make(map[Role]int)

	for _, p := range players {
		if !p.Alive || p.Ejected {
			continue
		}
		role := a.Assign(p, ledgerOf(p.ID), st)
		style := Style(perRole[role] % int(styleCount))
		perRole[role]++
		out[p.ID] = Assignment{Role: role, Style: style}
	}
	return out
}
