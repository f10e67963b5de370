package ledger

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/skeld-engine/pkg/game"
)

// Arena owns all per-agent ledgers for one game, indexed by player ID.
// It is rebuilt incrementally once per timestep, before any agent cycle
// starts, and treated as immutable for the remainder of the timestep.
type Arena struct {
	shipMap *game.ShipMap
	logger  *slog.Logger
	ledgers map[game.PlayerID]*Ledger
	applied int // events from the authoritative log already applied
	latest  int // highest timestep seen in the log
}

// NewArena creates an empty arena for the given roster.
func NewArena(players []game.Player, shipMap *game.ShipMap, logger *slog.Logger) *Arena {
	a := &Arena{
		shipMap: shipMap,
		logger:  logger,
		ledgers: make(map[game.PlayerID]*Ledger, len(players)),
	}
	for _, p := range players {
		a.ledgers[p.ID] = newLedger(p.ID)
	}
	return a
}

// Ledger returns the ledger for one agent, or nil for unknown players.
func (a *Arena) Ledger(id game.PlayerID) *Ledger {
	return a.ledgers[id]
}

// TimestepsElapsed returns the highest timestep applied so far.
func (a *Arena) TimestepsElapsed() int {
	return a.latest
}

// Rebuild applies any unapplied events from the session log. Events
// referencing unknown players or rooms are data-integrity failures:
// they are skipped with a warning and never reach a ledger.
func (a *Arena) Rebuild(s *game.Session) {
	for ; a.applied < len(s.EventLog); a.applied++ {
		ev := s.EventLog[a.applied]
		if err := a.validate(s, ev); err != nil {
			a.logger.Warn("rejecting game log event",
				"actor", ev.Actor,
				"kind", ev.Kind,
				"room", ev.Room,
				"error", err)
			continue
		}
		a.apply(ev)
	}
}

func (a *Arena) validate(s *game.Session, ev game.Event) error {
	if _, ok := s.Player(ev.Actor); !ok {
		return fmt.Errorf("unknown actor %q", ev.Actor)
	}
	if !a.shipMap.Has(ev.Room) {
		return fmt.Errorf("unknown room %q", ev.Room)
	}
	for _, w := range ev.Witnesses {
		if _, ok := s.Player(w); !ok {
			return fmt.Errorf("unknown witness %q", w)
		}
	}
	return nil
}

func (a *Arena) apply(ev game.Event) {
	if ev.Timestep > a.latest {
		a.latest = ev.Timestep
	}

	// Everyone in the room during the event sees everyone else there.
	present := append([]game.PlayerID{ev.Actor}, ev.Witnesses...)
	for _, p := range present {
		led := a.ledgers[p]
		if led == nil {
			continue
		}
		led.recordPresence(ev.Timestep, ev.Room, others(present, p))
	}

	// Witnesses of an incriminating action gain a confirmed-eyewitness record.
	if ev.Kind == game.EventKill || ev.Kind == game.EventVent {
		for _, w := range ev.Witnesses {
			led := a.ledgers[w]
			if led == nil {
				continue
			}
			led.WitnessedCrimes = append(led.WitnessedCrimes, Crime{
				Actor:    ev.Actor,
				Victim:   ev.Victim,
				Kind:     ev.Kind,
				Room:     ev.Room,
				Timestep: ev.Timestep,
			})
		}
	}
}

// RegisterDeception records an impostor's claimed alibi against the true
// kill facts. Idempotent per kill; the latest registration wins.
func (a *Arena) RegisterDeception(impostor game.PlayerID, d Deception) error {
	led := a.ledgers[impostor]
	if led == nil {
		return fmt.Errorf("unknown player %q", impostor)
	}
	if d.ClaimedAlibi != "" && !a.shipMap.Has(d.ClaimedAlibi) {
		return fmt.Errorf("unknown alibi room %q", d.ClaimedAlibi)
	}
	led.Deception = &d
	return nil
}

func others(all []game.PlayerID, self game.PlayerID) []game.PlayerID {
	var out []game.PlayerID
	for _, p := range all {
		if p != self {
			out = append(out, p)
		}
	}
	return out
}
