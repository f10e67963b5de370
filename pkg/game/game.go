package game

import (
	"fmt"

	"github.com/google/uuid"
)

// PlayerID is a stable identifier for a player within one game,
// e.g. "player-1". Display names ("Player 1: blue") are derived.
type PlayerID string

// RoomID identifies a room on the ship map, lowercase ("upper engine").
type RoomID string

// Role is the hidden identity of a player.
type Role string

const (
	RoleCrewmate Role = "Crewmate"
	RoleImpostor Role = "Impostor"
)

// Team is the winning side reported by the game engine.
// Teams map 1:1 onto roles in the five-player configuration.
type Team string

const (
	TeamCrewmate Team = "Crewmate"
	TeamImpostor Team = "Impostor"
)

// Player is the engine's view of one participant. The core never
// mutates players; rosters arrive with each snapshot.
type Player struct {
	ID       PlayerID `json:"id"`
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Role     Role     `json:"role"`
	Alive    bool     `json:"alive"`
	Ejected  bool     `json:"ejected"`
	Location RoomID   `json:"location"`
}

// DisplayName returns the in-game name used in transcripts.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.ID)
}

// EventKind enumerates the observable actions recorded in the game log.
type EventKind string

const (
	EventKill         EventKind = "KILL"
	EventVent         EventKind = "VENT"
	EventSabotage     EventKind = "SABOTAGE"
	EventFakeTask     EventKind = "FAKE_TASK"
	EventVisualTask   EventKind = "VISUAL_TASK"
	EventCompleteTask EventKind = "COMPLETE_TASK"
	EventMove         EventKind = "MOVE"
	EventReportBody   EventKind = "REPORT_BODY"
	EventFixSabotage  EventKind = "FIX_SABOTAGE"
	EventDie          EventKind = "DIE"
)

// Event is one authoritative game-log record, sufficient to rebuild
// per-agent ground truth. Witnesses are the players co-present in the
// room at the event timestep, excluding the actor.
type Event struct {
	Timestep  int        `json:"timestep"`
	Kind      EventKind  `json:"kind"`
	Actor     PlayerID   `json:"actor"`
	Victim    PlayerID   `json:"victim,omitempty"`
	Room      RoomID     `json:"room"`
	Witnesses []PlayerID `json:"witnesses,omitempty"`
}

// Witnessed reports whether id saw the event, either as a listed
// witness or as the actor themselves.
func (e Event) Witnessed(id PlayerID) bool {
	if e.Actor == id {
		return true
	}
	for _, w := range e.Witnesses {
		if w == id {
			return true
		}
	}
	return false
}

// Session holds one game's accumulated state on the decision-support
// side: roster, authoritative event log and meeting transcript position.
type Session struct {
	ID        uuid.UUID           `json:"id"`
	Players   []Player            `json:"players"`
	EventLog  []Event             `json:"event_log"`
	CreatedAt int64               `json:"created_at,omitempty"`
	byID      map[PlayerID]Player `json:"-"`
}

// NewSession creates a session for the given roster.
func NewSession(players []Player) (*Session, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("roster cannot be empty")
	}
	s := &Session{
		ID:      uuid.New(),
		Players: players,
	}
	s.reindex()
	return s, nil
}

func (s *Session) reindex() {
	s.byID = make(map[PlayerID]Player, len(s.Players))
	for _, p := range s.Players {
		s.byID[p.ID] = p
	}
}

// Player looks up a roster entry by ID.
func (s *Session) Player(id PlayerID) (Player, bool) {
	if s.byID == nil {
		s.reindex()
	}
	p, ok := s.byID[id]
	return p, ok
}

// UpdateRoster replaces the roster with the engine's current view.
func (s *Session) UpdateRoster(players []Player) {
	s.Players = players
	s.reindex()
}

// AppendEvents adds a batch of authoritative events to the log.
// Events referencing unknown players or rooms are rejected by the
// ledger rebuild, not here; the log itself stays faithful to the engine.
func (s *Session) AppendEvents(events []Event) {
	s.EventLog = append(s.EventLog, events...)
}

// Living returns living, non-ejected players in roster (player index) order.
func (s *Session) Living() []Player {
	var out []Player
	for _, p := range s.Players {
		if p.Alive && !p.Ejected {
			out = append(out, p)
		}
	}
	return out
}
