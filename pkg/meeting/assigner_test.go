package meeting

import (
	"testing"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

func witnessLedger(owner game.PlayerID) *ledger.Ledger {
	return &ledger.Ledger{
		Owner:        owner,
		RoomsVisited: map[game.RoomID]bool{"electrical": true},
		Presence:     []ledger.PresenceEntry{{Timestep: 1, Room: "electrical"}},
		WitnessedCrimes: []ledger.Crime{
			{Actor: "player-5", Kind: game.EventKill, Room: "electrical", Timestep: 1},
		},
	}
}

func locationLedger(owner game.PlayerID) *ledger.Ledger {
	return &ledger.Ledger{
		Owner:        owner,
		RoomsVisited: map[game.RoomID]bool{"cafeteria": true},
		Presence:     []ledger.PresenceEntry{{Timestep: 1, Room: "cafeteria"}},
	}
}

func TestAssign_CrewmateStack(t *testing.T) {
	accusedState := &State{Stage: StageAccusation, Round: 1, Accused: map[game.PlayerID]bool{"player-1": true}}
	cleanState := &State{Stage: StageAccusation, Round: 1}

	tests := []struct {
		name string
		led  *ledger.Ledger
		st   *State
		want Role
	}{
		{"accused witness counter-attacks", witnessLedger("player-1"), accusedState, RoleCounterAttacker},
		{"accused without evidence defends", locationLedger("player-1"), accusedState, RoleDefender},
		{"witness prosecutes", witnessLedger("player-1"), cleanState, RoleProsecutor},
		{"location data makes a detective", locationLedger("player-1"), cleanState, RoleDetective},
		{"nothing makes a bystander", nil, cleanState, RoleBystander},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssigner(1)
			p := game.Player{ID: "player-1", Role: game.RoleCrewmate, Alive: true}
			if got := a.Assign(p, tt.led, tt.st); got != tt.want {
				t.Errorf("Assign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssign_Impostor(t *testing.T) {
	a := NewAssigner(1)
	imp := game.Player{ID: "player-5", Role: game.RoleImpostor, Alive: true}

	accused := &State{Stage: StageAccusation, Round: 1, Accused: map[game.PlayerID]bool{"player-5": true}}
	if got := a.Assign(imp, locationLedger("player-5"), accused); got != RoleDefender {
		t.Errorf("accused impostor = %v, want Defender", got)
	}

	// A registered deception makes the impostor play investigator.
	led := locationLedger("player-5")
	led.Deception = &ledger.Deception{ClaimedAlibi: "medbay", KillRoom: "electrical"}
	clean := &State{Stage: StageTestimony, Round: 1}
	if got := a.Assign(imp, led, clean); got != RoleDetective {
		t.Errorf("deceiving impostor = %v, want Detective", got)
	}

	// An impostor never prosecutes, whatever the evidence state.
	for seed := int64(0); seed < 8; seed++ {
		got := NewAssigner(seed).Assign(imp, locationLedger("player-5"), clean)
		if got == RoleProsecutor || got == RoleCounterAttacker {
			t.Fatalf("impostor assigned %v with seed %d", got, seed)
		}
	}
}

func TestAssign_Deterministic(t *testing.T) {
	imp := game.Player{ID: "player-5", Role: game.RoleImpostor, Alive: true}
	st := &State{Stage: StageTestimony, Round: 1}

	first := NewAssigner(42).Assign(imp, locationLedger("player-5"), st)
	second := NewAssigner(42).Assign(imp, locationLedger("player-5"), st)
	if first != second {
		t.Errorf("same seed gave %v then %v", first, second)
	}
}

func TestAssignAll_DistinctStyles(t *testing.T) {
	players := []game.Player{
		{ID: "player-1", Role: game.RoleCrewmate, Alive: true},
		{ID: "player-2", Role: game.RoleCrewmate, Alive: true},
		{ID: "player-3", Role: game.RoleCrewmate, Alive: true},
		{ID: "player-4", Role: game.RoleCrewmate, Alive: false}, // dead, skipped
	}
	ledgers := map[game.PlayerID]*ledger.Ledger{
		"player-1": locationLedger("player-1"),
		"player-2": locationLedger("player-2"),
		"player-3": locationLedger("player-3"),
	}

	a := NewAssigner(1)
	st := &State{Stage: StageTestimony, Round: 1}
	out := a.AssignAll(players, func(id game.PlayerID) *ledger.Ledger { return ledgers[id] }, st)

	if len(out) != 3 {
		t.Fatalf("AssignAll() assigned %d agents, want 3", len(out))
	}
	if _, ok := out["player-4"]; ok {
		t.Error("dead player received an assignment")
	}

	// All three share the Detective role and must get distinct styles.
	seen := make(map[Style]bool)
	for id, asg := range out {
		if asg.Role != RoleDetective {
			t.Errorf("%s role = %v, want Detective", id, asg.Role)
		}
		if seen[asg.Style] {
			t.Errorf("style %v assigned twice", asg.Style)
		}
		seen[asg.Style] = true
	}
}

func TestStageAndStyleStrings(t *testing.T) {
	if StageTestimony.String() != "testimony" || StageFinal.String() != "final-arguments" {
		t.Error("unexpected stage names")
	}
	for s := StyleDirect; s < styleCount; s++ {
		if s.String() == "unknown" || s.Instruction() == "" {
			t.Errorf("style %d missing name or instruction", s)
		}
	}
	for _, r := range []Role{RoleCounterAttacker, RoleDefender, RoleProsecutor, RoleDetective, RoleBystander} {
		if r.Instruction() == "" {
			t.Errorf("role %s missing instruction", r)
		}
	}
}
