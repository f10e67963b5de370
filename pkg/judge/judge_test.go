package judge

import (
	"testing"

	"github.com/jwebster45206/skeld-engine/pkg/chat"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

func crewmate() game.Player {
	return game.Player{ID: "player-1", Role: game.RoleCrewmate, Alive: true}
}

func impostor() game.Player {
	return game.Player{ID: "player-5", Role: game.RoleImpostor, Alive: true}
}

func visited(rooms ...game.RoomID) *ledger.Ledger {
	led := &ledger.Ledger{
		Owner:        "player-1",
		RoomsVisited: make(map[game.RoomID]bool),
	}
	for _, r := range rooms {
		led.RoomsVisited[r] = true
	}
	return led
}

func sawIn(led *ledger.Ledger, room game.RoomID, players ...game.PlayerID) *ledger.Ledger {
	if led.CoOccupants == nil {
		led.CoOccupants = make(map[game.RoomID]map[game.PlayerID]bool)
	}
	if led.CoOccupants[room] == nil {
		led.CoOccupants[room] = make(map[game.PlayerID]bool)
	}
	for _, p := range players {
		led.CoOccupants[room][p] = true
	}
	return led
}

func TestClassify_Crewmate(t *testing.T) {
	j := NewRuleJudge(game.DefaultShipMap())

	tests := []struct {
		name      string
		statement string
		led       *ledger.Ledger
		wantHall  bool
	}{
		{
			name:      "confirmed location claim",
			statement: "I was in medbay with Player 2.",
			led:       visited("medbay", "cafeteria"),
			wantHall:  false,
		},
		{
			name:      "false location claim",
			statement: "I was in reactor the whole time.",
			led:       visited("medbay"),
			wantHall:  true,
		},
		{
			name:      "false sighting claim",
			statement: "I saw Player 5 in navigation.",
			led:       visited("medbay"),
			wantHall:  true,
		},
		{
			name:      "confirmed sighting of a named player",
			statement: "I saw Player 2 in medbay doing the scan.",
			led:       sawIn(visited("medbay"), "medbay", "player-2"),
			wantHall:  false,
		},
		{
			name:      "sighting of a player never shared the room with",
			statement: "I saw Player 5 in medbay.",
			led:       sawIn(visited("medbay"), "medbay", "player-2"),
			wantHall:  true,
		},
		{
			name:      "multi-word room resolves correctly",
			statement: "I stayed in upper engine all round.",
			led:       visited("upper engine"),
			wantHall:  false,
		},
		{
			name:      "no checkable claims passes holistically",
			statement: "I'm not sure who it is. Maybe we should skip.",
			led:       visited("medbay"),
			wantHall:  false,
		},
		{
			name:      "empty statement",
			statement: "   ",
			led:       visited("medbay"),
			wantHall:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := j.Classify(tt.statement, crewmate(), tt.led, nil)
			if v.Hallucination != tt.wantHall {
				t.Errorf("Hallucination = %v (%s), want %v", v.Hallucination, v.Reasoning, tt.wantHall)
			}
			if v.Reasoning == "" {
				t.Error("verdict must carry reasoning")
			}
		})
	}
}

func TestClassify_CrewmateCrimeClaim(t *testing.T) {
	j := NewRuleJudge(game.DefaultShipMap())
	led := visited("electrical")

	v := j.Classify("I watched Player 5 kill Player 2 in electrical.", crewmate(), led, nil)
	if !v.Hallucination {
		t.Error("kill claim with no eyewitness record should be a hallucination")
	}

	led.WitnessedCrimes = []ledger.Crime{
		{Actor: "player-5", Victim: "player-2", Kind: game.EventKill, Room: "electrical", Timestep: 3},
	}
	sawIn(led, "electrical", "player-5", "player-2")
	v = j.Classify("I watched Player 5 kill Player 2 in electrical.", crewmate(), led, nil)
	if v.Hallucination {
		t.Errorf("confirmed kill claim flagged: %s", v.Reasoning)
	}
}

func TestClassify_Impostor(t *testing.T) {
	j := NewRuleJudge(game.DefaultShipMap())

	transcript := chat.Transcript{}
	if err := transcript.Append(chat.Message{Speaker: "player-5", Content: "I was in medbay doing the scan.", Round: 1}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		statement string
		wantHall  bool
	}{
		{
			// Fabrication is fine as long as the story holds.
			name:      "consistent lie",
			statement: "Like I said, I was in medbay.",
			wantHall:  false,
		},
		{
			name:      "changed story",
			statement: "I was in reactor, nowhere near the body.",
			wantHall:  true,
		},
		{
			name:      "no location claims",
			statement: "Player 3 is clearly lying about me.",
			wantHall:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := j.Classify(tt.statement, impostor(), nil, transcript)
			if v.Hallucination != tt.wantHall {
				t.Errorf("Hallucination = %v (%s), want %v", v.Hallucination, v.Reasoning, tt.wantHall)
			}
		})
	}
}

func TestClassify_ImpostorFirstStatement(t *testing.T) {
	j := NewRuleJudge(game.DefaultShipMap())

	// A first statement has no prior claims to contradict, regardless of
	// where the impostor actually was.
	v := j.Classify("I was in medbay the whole time.", impostor(), nil, chat.Transcript{})
	if v.Hallucination {
		t.Errorf("first statement flagged: %s", v.Reasoning)
	}
}
