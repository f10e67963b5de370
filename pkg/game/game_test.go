package game

import (
	"testing"

	"github.com/google/uuid"
)

func TestSnapshot_Critical(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"healthy opening", Snapshot{LivingCrew: 6, LivingImpostors: 1}, false},
		{"three crew left", Snapshot{LivingCrew: 3, LivingImpostors: 1}, true},
		{"crew within two of impostors", Snapshot{LivingCrew: 4, LivingImpostors: 2}, true},
		{"four crew one impostor", Snapshot{LivingCrew: 4, LivingImpostors: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Critical(); got != tt.want {
				t.Errorf("Critical() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent_Witnessed(t *testing.T) {
	ev := Event{Actor: "player-5", Witnesses: []PlayerID{"player-1"}}
	if !ev.Witnessed("player-5") {
		t.Error("actor should count as a witness of their own event")
	}
	if !ev.Witnessed("player-1") {
		t.Error("listed witness not recognized")
	}
	if ev.Witnessed("player-2") {
		t.Error("absent player counted as witness")
	}
}

func TestSession_Roster(t *testing.T) {
	if _, err := NewSession(nil); err == nil {
		t.Error("NewSession() accepted an empty roster")
	}

	s, err := NewSession([]Player{
		{ID: "player-1", Role: RoleCrewmate, Alive: true},
		{ID: "player-2", Role: RoleCrewmate, Alive: true},
	})
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	if s.ID == uuid.Nil {
		t.Error("session missing ID")
	}

	p, ok := s.Player("player-1")
	if !ok || p.ID != "player-1" {
		t.Errorf("Player() = %+v, %v", p, ok)
	}
	if _, ok := s.Player("stranger"); ok {
		t.Error("Player() found a stranger")
	}

	// Roster replacement reindexes and changes Living.
	s.UpdateRoster([]Player{
		{ID: "player-1", Role: RoleCrewmate, Alive: false},
		{ID: "player-2", Role: RoleCrewmate, Alive: true, Ejected: true},
		{ID: "player-3", Role: RoleImpostor, Alive: true},
	})
	living := s.Living()
	if len(living) != 1 || living[0].ID != "player-3" {
		t.Errorf("Living() = %+v", living)
	}
}

func TestPlayer_DisplayName(t *testing.T) {
	p := Player{ID: "player-1", Name: "Player 1: red"}
	if p.DisplayName() != "Player 1: red" {
		t.Errorf("DisplayName() = %q", p.DisplayName())
	}
	p.Name = ""
	if p.DisplayName() != "player-1" {
		t.Errorf("DisplayName() fallback = %q", p.DisplayName())
	}
}
