package speech

import (
	"strings"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

// TruthTable is the per-agent line-of-sight reality check built
// strictly from the ground truth ledger before scoring. No claim about
// a room outside RoomsVisited is ever valid.
type TruthTable struct {
	Agent      game.PlayerID
	IsImpostor bool

	SawKill bool
	SawVent bool

	RoomsVisited map[game.RoomID]bool
	SeenPerRoom  map[game.RoomID]map[string]bool // room → lowercased display names

	// Impostor deception ledger: the story versus the crime.
	ClaimedAlibi game.RoomID
	KillRoom     game.RoomID
	KillVictim   game.PlayerID
}

// BuildTruthTable derives the truth table for one agent. Impostors get
// their claimed alibi room added to RoomsVisited: intentional deception
// is allowed, incoherent deception is not.
func BuildTruthTable(p game.Player, led *ledger.Ledger, roster []game.Player) TruthTable {
	t := TruthTable{
		Agent:        p.ID,
		IsImpostor:   p.Role == game.RoleImpostor,
		RoomsVisited: make(map[game.RoomID]bool),
		SeenPerRoom:  make(map[game.RoomID]map[string]bool),
	}
	if led == nil {
		return t
	}

	t.SawKill = led.SawKill()
	t.SawVent = led.SawVent()
	for room := range led.RoomsVisited {
		t.RoomsVisited[room] = true
	}

	names := make(map[game.PlayerID]string, len(roster))
	for _, q := range roster {
		names[q.ID] = strings.ToLower(q.DisplayName())
	}
	for room, occ := range led.CoOccupants {
		set := make(map[string]bool, len(occ))
		for id := range occ {
			if n, ok := names[id]; ok {
				set[n] = true
			} else {
				set[strings.ToLower(string(id))] = true
			}
		}
		t.SeenPerRoom[room] = set
	}

	if t.IsImpostor && led.Deception != nil {
		t.ClaimedAlibi = led.Deception.ClaimedAlibi
		t.KillRoom = led.Deception.KillRoom
		t.KillVictim = led.Deception.KillVictim
		if t.ClaimedAlibi != "" {
			t.RoomsVisited[t.ClaimedAlibi] = true
		}
	}
	return t
}
