package ledger

import (
	"github.com/jwebster45206/skeld-engine/pkg/game"
)

// PresenceEntry records one timestep of verified physical presence:
// the room the agent was in and who else they saw there.
type PresenceEntry struct {
	Timestep int             `json:"timestep"`
	Room     game.RoomID     `json:"room"`
	Seen     []game.PlayerID `json:"seen,omitempty"`
}

// Crime is a confirmed-eyewitness record of an incriminating action.
type Crime struct {
	Actor    game.PlayerID  `json:"actor"`
	Victim   game.PlayerID  `json:"victim,omitempty"`
	Kind     game.EventKind `json:"kind"`
	Room     game.RoomID    `json:"room"`
	Timestep int            `json:"timestep"`
}

// Deception is the impostor-only record of the story they are telling
// versus what actually happened. The claimed alibi room is treated as
// "visited" by the speech gate; the true kill facts are what the gate
// must keep them from blurting out.
type Deception struct {
	ClaimedAlibi game.RoomID   `json:"claimed_alibi"`
	KillRoom     game.RoomID   `json:"kill_room"`
	KillVictim   game.PlayerID `json:"kill_victim,omitempty"`
}

// Ledger is one agent's line-of-sight ground truth, rebuilt from the
// authoritative game log. Read-only to every component except the
// arena that owns it.
type Ledger struct {
	Owner           game.PlayerID                        `json:"owner"`
	RoomsVisited    map[game.RoomID]bool                 `json:"rooms_visited"`
	CoOccupants     map[game.RoomID]map[game.PlayerID]bool `json:"co_occupants"`
	Presence        []PresenceEntry                      `json:"presence"`
	WitnessedCrimes []Crime                              `json:"witnessed_crimes,omitempty"`
	Deception       *Deception                           `json:"deception,omitempty"`
}

func newLedger(owner game.PlayerID) *Ledger {
	return &Ledger{
		Owner:        owner,
		RoomsVisited: make(map[game.RoomID]bool),
		CoOccupants:  make(map[game.RoomID]map[game.PlayerID]bool),
	}
}

// Visited reports whether the agent was ever physically in the room.
func (l *Ledger) Visited(room game.RoomID) bool {
	return l.RoomsVisited[room]
}

// WasPresent reports whether the agent was in the room at the timestep.
func (l *Ledger) WasPresent(room game.RoomID, timestep int) bool {
	for _, e := range l.Presence {
		if e.Timestep == timestep && e.Room == room {
			return true
		}
	}
	return false
}

// SawInRoom reports whether the agent personally saw the player in the room.
func (l *Ledger) SawInRoom(room game.RoomID, p game.PlayerID) bool {
	return l.CoOccupants[room][p]
}

// SawKill reports whether the agent is a confirmed eyewitness to a kill.
func (l *Ledger) SawKill() bool {
	for _, c := range l.WitnessedCrimes {
		if c.Kind == game.EventKill {
			return true
		}
	}
	return false
}

// SawVent reports whether the agent is a confirmed eyewitness to a vent.
func (l *Ledger) SawVent() bool {
	for _, c := range l.WitnessedCrimes {
		if c.Kind == game.EventVent {
			return true
		}
	}
	return false
}

// CoLocationCount returns how many presence entries include the other
// player, i.e. how many timesteps the two were in the same room.
func (l *Ledger) CoLocationCount(other game.PlayerID) int {
	n := 0
	for _, e := range l.Presence {
		for _, p := range e.Seen {
			if p == other {
				n++
				break
			}
		}
	}
	return n
}

func (l *Ledger) recordPresence(timestep int, room game.RoomID, seen []game.PlayerID) {
	l.RoomsVisited[room] = true
	occ := l.CoOccupants[room]
	if occ == nil {
		occ = make(map[game.PlayerID]bool)
		l.CoOccupants[room] = occ
	}
	for _, p := range seen {
		occ[p] = true
	}

	// Merge into an existing entry for the same timestep and room so one
	// busy turn does not inflate co-location counts.
	for i := range l.Presence {
		e := &l.Presence[i]
		if e.Timestep == timestep && e.Room == room {
			e.Seen = mergeSeen(e.Seen, seen)
			return
		}
	}
	l.Presence = append(l.Presence, PresenceEntry{Timestep: timestep, Room: room, Seen: seen})
}

func mergeSeen(have, add []game.PlayerID) []game.PlayerID {
	for _, p := range add {
		found := false
		for _, h := range have {
			if h == p {
				found = true
				break
			}
		}
		if !found {
			have = append(have, p)
		}
	}
	return have
}
