package ledger

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jwebster45206/skeld-engine/pkg/game"
)

func testArena(t *testing.T) (*Arena, *game.Session) {
	t.Helper()
	players := []game.Player{
		{ID: "player-1", Role: game.RoleCrewmate, Alive: true},
		{ID: "player-2", Role: game.RoleCrewmate, Alive: true},
		{ID: "player-5", Role: game.RoleImpostor, Alive: true},
	}
	s, err := game.NewSession(players)
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewArena(players, game.DefaultShipMap(), logger), s
}

func TestRebuild_Presence(t *testing.T) {
	a, s := testArena(t)
	s.AppendEvents([]game.Event{
		{Timestep: 1, Kind: game.EventCompleteTask, Actor: "player-1", Room: "cafeteria", Witnesses: []game.PlayerID{"player-2"}},
		{Timestep: 2, Kind: game.EventMove, Actor: "player-1", Room: "medbay"},
	})
	a.Rebuild(s)

	led := a.Ledger("player-1")
	if !led.Visited("cafeteria") || !led.Visited("medbay") {
		t.Errorf("RoomsVisited = %v", led.RoomsVisited)
	}
	if !led.WasPresent("cafeteria", 1) {
		t.Error("actor not recorded present at own event")
	}
	if led.WasPresent("cafeteria", 2) {
		t.Error("presence recorded at wrong timestep")
	}
	if !led.SawInRoom("cafeteria", "player-2") {
		t.Error("co-occupant not recorded")
	}

	// The witness sees the actor too.
	wled := a.Ledger("player-2")
	if !wled.WasPresent("cafeteria", 1) || !wled.SawInRoom("cafeteria", "player-1") {
		t.Error("witness presence not recorded symmetrically")
	}

	if a.TimestepsElapsed() != 2 {
		t.Errorf("TimestepsElapsed() = %d, want 2", a.TimestepsElapsed())
	}
}

func TestRebuild_Crimes(t *testing.T) {
	a, s := testArena(t)
	s.AppendEvents([]game.Event{
		{Timestep: 3, Kind: game.EventKill, Actor: "player-5", Victim: "player-2", Room: "electrical", Witnesses: []game.PlayerID{"player-1"}},
	})
	a.Rebuild(s)

	led := a.Ledger("player-1")
	if !led.SawKill() {
		t.Fatal("witness has no kill record")
	}
	c := led.WitnessedCrimes[0]
	if c.Actor != "player-5" || c.Victim != "player-2" || c.Room != "electrical" {
		t.Errorf("crime record = %+v", c)
	}

	// The killer holds no eyewitness record of their own crime.
	if a.Ledger("player-5").SawKill() {
		t.Error("actor gained an eyewitness record of their own kill")
	}
}

func TestRebuild_Incremental(t *testing.T) {
	a, s := testArena(t)
	s.AppendEvents([]game.Event{{Timestep: 1, Kind: game.EventMove, Actor: "player-1", Room: "cafeteria"}})
	a.Rebuild(s)
	a.Rebuild(s) // applying twice must not duplicate entries

	led := a.Ledger("player-1")
	if len(led.Presence) != 1 {
		t.Errorf("Presence length after double rebuild = %d, want 1", len(led.Presence))
	}

	s.AppendEvents([]game.Event{{Timestep: 2, Kind: game.EventMove, Actor: "player-1", Room: "medbay"}})
	a.Rebuild(s)
	if len(led.Presence) != 2 {
		t.Errorf("Presence length after new event = %d, want 2", len(led.Presence))
	}
}

func TestRebuild_RejectsInvalidEvents(t *testing.T) {
	a, s := testArena(t)
	s.AppendEvents([]game.Event{
		{Timestep: 1, Kind: game.EventKill, Actor: "stranger", Room: "electrical"},
		{Timestep: 1, Kind: game.EventKill, Actor: "player-5", Room: "bridge"},
		{Timestep: 1, Kind: game.EventKill, Actor: "player-5", Room: "electrical", Witnesses: []game.PlayerID{"stranger"}},
	})
	a.Rebuild(s)

	for _, id := range []game.PlayerID{"player-1", "player-2", "player-5"} {
		led := a.Ledger(id)
		if len(led.Presence) != 0 || len(led.WitnessedCrimes) != 0 {
			t.Errorf("invalid event reached ledger of %s: %+v", id, led)
		}
	}
}

func TestRecordPresence_MergesSameTimestep(t *testing.T) {
	a, s := testArena(t)
	s.AppendEvents([]game.Event{
		{Timestep: 1, Kind: game.EventCompleteTask, Actor: "player-1", Room: "cafeteria", Witnesses: []game.PlayerID{"player-2"}},
		{Timestep: 1, Kind: game.EventFakeTask, Actor: "player-5", Room: "cafeteria", Witnesses: []game.PlayerID{"player-1"}},
	})
	a.Rebuild(s)

	led := a.Ledger("player-1")
	if len(led.Presence) != 1 {
		t.Fatalf("Presence length = %d, want 1 merged entry", len(led.Presence))
	}
	if led.CoLocationCount("player-2") != 1 || led.CoLocationCount("player-5") != 1 {
		t.Errorf("merged Seen = %v", led.Presence[0].Seen)
	}
}

func TestRegisterDeception(t *testing.T) {
	a, _ := testArena(t)

	if err := a.RegisterDeception("player-5", Deception{ClaimedAlibi: "medbay", KillRoom: "electrical", KillVictim: "player-2"}); err != nil {
		t.Fatalf("RegisterDeception() error: %v", err)
	}
	d := a.Ledger("player-5").Deception
	if d == nil || d.ClaimedAlibi != "medbay" || d.KillRoom != "electrical" {
		t.Errorf("Deception = %+v", d)
	}

	if err := a.RegisterDeception("player-5", Deception{ClaimedAlibi: "bridge"}); err == nil {
		t.Error("RegisterDeception() accepted an unknown alibi room")
	}
	if err := a.RegisterDeception("stranger", Deception{ClaimedAlibi: "medbay"}); err == nil {
		t.Error("RegisterDeception() accepted an unknown player")
	}
}
