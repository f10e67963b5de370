// Command sim runs a short scripted five-player game through the full
// turn pipeline with mock services, checks a handful of invariants and
// exits non-zero on any violation. It is the offline smoke run used in
// CI and local development; no Redis or model backend is required.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/jwebster45206/skeld-engine/internal/config"
	"github.com/jwebster45206/skeld-engine/internal/logger"
	"github.com/jwebster45206/skeld-engine/internal/orchestrator"
	"github.com/jwebster45206/skeld-engine/internal/services"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/meeting"
	"github.com/jwebster45206/skeld-engine/pkg/prompts"
)

var failures int

func check(cond bool, format string, args ...interface{}) {
	if !cond {
		failures++
		fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	}
}

func roster() []game.Player {
	return []game.Player{
		{ID: "player-1", Name: "Player 1: red", Color: "red", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-2", Name: "Player 2: blue", Color: "blue", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-3", Name: "Player 3: green", Color: "green", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-4", Name: "Player 4: yellow", Color: "yellow", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-5", Name: "Player 5: purple", Color: "purple", Role: game.RoleImpostor, Alive: true, Location: "cafeteria"},
	}
}

// scripted returns the drafts each agent speaks during the meeting.
// Player 3 testifies to the kill it witnessed; the impostor tells its
// cover story.
func scripted(agentCtx prompts.AgentContext) (*services.Candidate, error) {
	if agentCtx.Meeting == nil {
		kind := game.EventCompleteTask
		if agentCtx.Role == game.RoleImpostor {
			kind = game.EventFakeTask
		}
		return &services.Candidate{Action: kind}, nil
	}
	switch agentCtx.Agent {
	case "player-3":
		return &services.Candidate{Speech: "I saw Player 5 kill Player 2 in Electrical. It has to be them."}, nil
	case "player-5":
		return &services.Candidate{
			Alibi:  "medbay",
			Speech: "I was in Medbay doing the scan. I think Player 3 is lying.",
		}, nil
	default:
		return &services.Candidate{Speech: "I didn't see anything suspicious this round. I don't have enough information yet."}, nil
	}
}

func main() {
	cfg := config.Load()
	cfg.LogLevel = slog.LevelWarn
	log := logger.Setup(cfg)

	gen := services.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, agentCtx prompts.AgentContext) (*services.Candidate, error) {
		return scripted(agentCtx)
	}
	store := services.NewMockStore()
	orch := orchestrator.New(game.DefaultShipMap(), gen, store, cfg.Seed, cfg.SpeechRetryBudget, log)

	ctx := context.Background()
	g, err := orch.CreateGame(ctx, roster())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: create game: %v\n", err)
		os.Exit(1)
	}
	gameID := g.Session.ID
	fmt.Printf("game %s started with %d players\n", gameID, len(g.Session.Players))

	// Round timestep 1: the impostor kills player-2 in electrical with
	// player-3 present. Everyone else runs tasks elsewhere.
	players := roster()
	players[1].Location = "electrical"
	players[2].Location = "electrical"
	players[4].Location = "electrical"
	snap := game.Snapshot{Timestep: 1, LivingCrew: 4, LivingImpostors: 1, TaskPct: 20}
	events := []game.Event{
		{Timestep: 1, Kind: game.EventCompleteTask, Actor: "player-1", Room: "cafeteria"},
		{Timestep: 1, Kind: game.EventCompleteTask, Actor: "player-4", Room: "medbay"},
		{Timestep: 1, Kind: game.EventKill, Actor: "player-5", Victim: "player-2", Room: "electrical", Witnesses: []game.PlayerID{"player-3"}},
	}
	res, err := orch.RunTurn(ctx, orchestrator.TurnRequest{
		GameID:   gameID,
		Agent:    "player-5",
		Snapshot: snap,
		Events:   events,
		Roster:   players,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: impostor turn: %v\n", err)
		os.Exit(1)
	}
	check(math.Abs(res.Context.VCrew+res.Context.VImp-1.0) < 1e-9, "critic values not zero-sum: %v + %v", res.Context.VCrew, res.Context.VImp)
	check(res.Reward != 0, "kill turn produced no reward")

	// The witness's belief about the killer must be certainty.
	wres, err := orch.RunTurn(ctx, orchestrator.TurnRequest{
		GameID:   gameID,
		Agent:    "player-3",
		Snapshot: snap,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: witness turn: %v\n", err)
		os.Exit(1)
	}
	check(wres.Beliefs["player-5"] == 1.0, "witness suspicion of killer = %v, want 1.0", wres.Beliefs["player-5"])
	for id, v := range wres.Beliefs {
		check(v >= 0 && v <= 1, "belief for %s out of range: %v", id, v)
	}

	// Round timestep 2: body reported, meeting. Player-2 is dead now.
	players[1].Alive = false
	snap = game.Snapshot{Timestep: 2, LivingCrew: 3, LivingImpostors: 1, DeadCrew: 1, TaskPct: 25}
	check(snap.Critical(), "three living crew should be a critical state")
	mi := &orchestrator.MeetingInfo{
		Stage:   meeting.StageAccusation,
		Round:   1,
		Accused: []game.PlayerID{"player-5"},
	}
	for _, id := range []game.PlayerID{"player-1", "player-3", "player-4", "player-5"} {
		res, err = orch.RunTurn(ctx, orchestrator.TurnRequest{
			GameID:   gameID,
			Agent:    id,
			Snapshot: snap,
			Roster:   players,
			Meeting:  mi,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: meeting turn for %s: %v\n", id, err)
			os.Exit(1)
		}
		check(res.Speech != nil && res.Speech.Accepted, "meeting turn for %s committed no statement", id)
		if res.Speech != nil {
			fmt.Printf("%-9s [score %3d] %s\n", id, res.Speech.Score, res.Speech.Statement)
		}
	}
	check(len(g.Transcript) == 4, "transcript has %d statements, want 4", len(g.Transcript))

	// Round timestep 3: the impostor is voted out, crew wins.
	players[4].Alive = false
	players[4].Ejected = true
	winner := game.TeamCrewmate
	crewRole := game.RoleImpostor // crew voted for the impostor
	snap = game.Snapshot{Timestep: 3, LivingCrew: 3, LivingImpostors: 0, DeadCrew: 1, DeadImpostors: 1, TaskPct: 30, Winner: &winner}
	for _, id := range []game.PlayerID{"player-1", "player-3", "player-4"} {
		res, err = orch.RunTurn(ctx, orchestrator.TurnRequest{
			GameID:   gameID,
			Agent:    id,
			Snapshot: snap,
			Roster:   players,
			Vote:     &orchestrator.VoteOutcome{TargetRole: &crewRole},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: terminal turn for %s: %v\n", id, err)
			os.Exit(1)
		}
		check(res.Reward == 50, "terminal reward for living winner %s = %v, want 50", id, res.Reward)
		check(res.Context.VCrew == 1.0, "terminal crew value = %v, want 1.0", res.Context.VCrew)
	}

	records, err := store.ListRewards(ctx, gameID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: list rewards: %v\n", err)
		os.Exit(1)
	}
	check(len(records) > 0, "no reward records persisted")

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d invariant violation(s)\n", failures)
		os.Exit(1)
	}
	fmt.Printf("ok: %d reward records, %d transcript statements\n", len(records), len(g.Transcript))
}
