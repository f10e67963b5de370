package critic

import (
	"math"
	"testing"

	"github.com/jwebster45206/skeld-engine/pkg/game"
)

func TestHeuristic_Value(t *testing.T) {
	tests := []struct {
		name     string
		snap     game.Snapshot
		wantCrew float64
	}{
		{
			name:     "all impostors eliminated",
			snap:     game.Snapshot{LivingCrew: 2, LivingImpostors: 0},
			wantCrew: 1.0,
		},
		{
			name:     "parity means crew loss",
			snap:     game.Snapshot{LivingCrew: 1, LivingImpostors: 1},
			wantCrew: 0.0,
		},
		{
			name:     "tasks complete",
			snap:     game.Snapshot{LivingCrew: 3, LivingImpostors: 1, TaskPct: 100},
			wantCrew: 1.0,
		},
		{
			name:     "mid game",
			snap:     game.Snapshot{LivingCrew: 4, LivingImpostors: 1, TaskPct: 60},
			wantCrew: 0.64,
		},
		{
			name:     "mid game with sabotage",
			snap:     game.Snapshot{LivingCrew: 4, LivingImpostors: 1, TaskPct: 60, SabotageActive: true},
			wantCrew: 0.54,
		},
		{
			name:     "opening position",
			snap:     game.Snapshot{LivingCrew: 4, LivingImpostors: 1, TaskPct: 0},
			wantCrew: 0.34,
		},
	}

	h := Heuristic{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vCrew, vImp := h.Value(tt.snap)
			if vCrew != tt.wantCrew {
				t.Errorf("vCrew = %v, want %v", vCrew, tt.wantCrew)
			}
			if math.Abs(vCrew+vImp-1.0) > 1e-9 {
				t.Errorf("values not zero-sum: %v + %v", vCrew, vImp)
			}
		})
	}
}

// Terminal overrides must apply in order: elimination beats parity,
// parity beats task completion.
func TestHeuristic_TerminalPrecedence(t *testing.T) {
	h := Heuristic{}

	// No impostors and no crew: elimination check runs first.
	if vCrew, _ := h.Value(game.Snapshot{LivingCrew: 0, LivingImpostors: 0}); vCrew != 1.0 {
		t.Errorf("elimination should precede parity, got vCrew = %v", vCrew)
	}

	// Parity with tasks done: parity check runs before task completion.
	if vCrew, _ := h.Value(game.Snapshot{LivingCrew: 1, LivingImpostors: 1, TaskPct: 100}); vCrew != 0.0 {
		t.Errorf("parity should precede task completion, got vCrew = %v", vCrew)
	}
}

func TestHeuristic_Bounds(t *testing.T) {
	h := Heuristic{}
	snaps := []game.Snapshot{
		{LivingCrew: 10, LivingImpostors: 1, TaskPct: 99},
		{LivingCrew: 3, LivingImpostors: 1, TaskPct: 0, SabotageActive: true},
		{LivingCrew: 4, LivingImpostors: 1, TaskPct: 50},
	}
	for _, snap := range snaps {
		vCrew, vImp := h.Value(snap)
		if vCrew < 0 || vCrew > 1 || vImp < 0 || vImp > 1 {
			t.Errorf("values out of range for %+v: %v, %v", snap, vCrew, vImp)
		}
	}
}
