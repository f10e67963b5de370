package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/skeld-engine/internal/services"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/meeting"
	"github.com/jwebster45206/skeld-engine/pkg/prompts"
	"github.com/jwebster45206/skeld-engine/pkg/reward"
	"github.com/jwebster45206/skeld-engine/pkg/speech"
)

func testRoster() []game.Player {
	return []game.Player{
		{ID: "player-1", Name: "Player 1: red", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-2", Name: "Player 2: blue", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-3", Name: "Player 3: green", Role: game.RoleCrewmate, Alive: true, Location: "electrical"},
		{ID: "player-4", Name: "Player 4: yellow", Role: game.RoleCrewmate, Alive: true, Location: "cafeteria"},
		{ID: "player-5", Name: "Player 5: purple", Role: game.RoleImpostor, Alive: true, Location: "electrical"},
	}
}

func testOrchestrator(t *testing.T, gen services.ActionGenerator) (*Orchestrator, *services.MockStore) {
	t.Helper()
	store := services.NewMockStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(game.DefaultShipMap(), gen, store, 42, 3, logger), store
}

func midGameSnapshot() game.Snapshot {
	return game.Snapshot{Timestep: 1, LivingCrew: 4, LivingImpostors: 1, TaskPct: 20}
}

func TestCreateGame(t *testing.T) {
	o, store := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)
	require.NotNil(t, g)

	got, ok := o.Game(g.Session.ID)
	assert.True(t, ok)
	assert.Same(t, g, got)

	saved, err := store.LoadSession(ctx, g.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.Players, 5)

	_, err = o.CreateGame(ctx, nil)
	assert.Error(t, err)

	o.EndGame(g.Session.ID)
	_, ok = o.Game(g.Session.ID)
	assert.False(t, ok)
}

func TestRunTurn_UnknownGameAndAgent(t *testing.T) {
	o, _ := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	_, err := o.RunTurn(ctx, TurnRequest{GameID: uuid.New(), Agent: "player-1"})
	assert.ErrorContains(t, err, "unknown game")

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	_, err = o.RunTurn(ctx, TurnRequest{GameID: g.Session.ID, Agent: "player-9"})
	assert.ErrorContains(t, err, "unknown agent")
}

func TestRunTurn_WitnessedKillRaisesSuspicion(t *testing.T) {
	o, store := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	res, err := o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-3",
		Snapshot: midGameSnapshot(),
		Events: []game.Event{
			{Timestep: 1, Kind: game.EventKill, Actor: "player-5", Victim: "player-4",
				Room: "electrical", Witnesses: []game.PlayerID{"player-3"}},
		},
	})
	require.NoError(t, err)

	// Witnessing a kill is certainty.
	assert.InDelta(t, 1.0, res.Beliefs["player-5"], 1e-9)
	// Events went into the session log and the ledger.
	assert.Len(t, g.Session.EventLog, 1)
	require.NotNil(t, g.Arena.Ledger("player-3"))
	assert.Len(t, g.Arena.Ledger("player-3").WitnessedCrimes, 1)

	// An unwitnessed agent still sits at the neutral prior.
	beliefs, err := store.LoadBeliefs(ctx, g.Session.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, beliefs["player-1"]["player-5"], 1e-9)
}

func TestRunTurn_ActionOnlyTurn(t *testing.T) {
	o, store := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	res, err := o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-1",
		Snapshot: midGameSnapshot(),
	})
	require.NoError(t, err)

	require.NotNil(t, res.Candidate)
	assert.Equal(t, game.EventCompleteTask, res.Candidate.Action)
	assert.Nil(t, res.Speech)
	assert.Nil(t, res.Judge)
	assert.Equal(t, float64(2), res.Reward)
	assert.Equal(t, reward.CategoryAction, res.Category)

	recs, err := store.ListRewards(ctx, g.Session.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, game.PlayerID("player-1"), recs[0].Agent)
}

func TestRunTurn_SpeechAcceptedAfterRetry(t *testing.T) {
	gen := services.NewMockGenerator()
	calls := 0
	gen.GenerateFunc = func(ctx context.Context, agentCtx prompts.AgentContext) (*services.Candidate, error) {
		calls++
		if calls == 1 {
			// Engine vocabulary trips the meta-gaming filter.
			return &services.Candidate{Speech: "The verified presence log shows Player 5 in electrical."}, nil
		}
		return &services.Candidate{Speech: speech.Fallback}, nil
	}
	o, _ := testOrchestrator(t, gen)
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	res, err := o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-1",
		Snapshot: midGameSnapshot(),
		Meeting:  &MeetingInfo{Stage: meeting.StageAccusation, Round: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Speech)
	assert.True(t, res.Speech.Accepted)
	assert.Equal(t, 2, res.Speech.Attempts)
	assert.Equal(t, speech.Fallback, res.Speech.Statement)
	assert.False(t, res.Speech.UsedFallback)

	// The second draft was generated with the rejection notice attached.
	second := gen.Calls()[1]
	require.NotNil(t, second.Regenerate)
	assert.Equal(t, 1, second.Regenerate.Attempt)
	assert.Negative(t, second.Regenerate.Score)

	// The committed statement landed in the transcript.
	require.Len(t, g.Transcript, 1)
	assert.Equal(t, speech.Fallback, g.Transcript[0].Content)
}

func TestRunTurn_RetryBudgetExhaustedUsesFallback(t *testing.T) {
	gen := services.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, agentCtx prompts.AgentContext) (*services.Candidate, error) {
		return &services.Candidate{Speech: "The verified presence log shows Player 5 in electrical."}, nil
	}
	o, _ := testOrchestrator(t, gen)
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	res, err := o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-2",
		Snapshot: midGameSnapshot(),
		Meeting:  &MeetingInfo{Stage: meeting.StageAccusation, Round: 1},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Speech)
	assert.True(t, res.Speech.UsedFallback)
	assert.Equal(t, 3, res.Speech.Attempts)
	assert.Equal(t, speech.Fallback, res.Speech.Statement)
	assert.Equal(t, 0, res.Speech.Score)
	assert.Len(t, gen.Calls(), 3)
}

func TestRunTurn_MeetingContextAssigned(t *testing.T) {
	o, _ := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	res, err := o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-1",
		Snapshot: midGameSnapshot(),
		Meeting:  &MeetingInfo{Stage: meeting.StageAccusation, Round: 1, Accused: []game.PlayerID{"player-5"}},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Context.Meeting)
	assert.Equal(t, meeting.StageAccusation, res.Context.Meeting.Stage)
	assert.NotEmpty(t, res.Context.Meeting.Role)

	// Assignments are stable within the same stage and round.
	first := g.assignments
	_, err = o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-2",
		Snapshot: midGameSnapshot(),
		Meeting:  &MeetingInfo{Stage: meeting.StageAccusation, Round: 1, Accused: []game.PlayerID{"player-5"}},
	})
	require.NoError(t, err)
	assert.Equal(t, first, g.assignments)

	// Leaving the meeting clears the state.
	_, err = o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-1",
		Snapshot: midGameSnapshot(),
	})
	require.NoError(t, err)
	assert.Nil(t, g.meetingState)
}

func TestRunTurn_TerminalReward(t *testing.T) {
	o, _ := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	winner := game.TeamCrewmate
	res, err := o.RunTurn(ctx, TurnRequest{
		GameID: g.Session.ID,
		Agent:  "player-1",
		Snapshot: game.Snapshot{
			Timestep: 9, LivingCrew: 4, DeadImpostors: 1, TaskPct: 60, Winner: &winner,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(50), res.Reward)
	assert.Equal(t, reward.CategoryTerminal, res.Category)
}

func TestRunTurn_ImpostorRiskRanking(t *testing.T) {
	o, _ := testOrchestrator(t, services.NewMockGenerator())
	ctx := context.Background()

	g, err := o.CreateGame(ctx, testRoster())
	require.NoError(t, err)

	// player-3 shares electrical with the impostor, so the ranking has
	// exactly one candidate.
	res, err := o.RunTurn(ctx, TurnRequest{
		GameID:   g.Session.ID,
		Agent:    "player-5",
		Snapshot: midGameSnapshot(),
	})
	require.NoError(t, err)

	require.Len(t, res.Context.KillRanking, 1)
	assert.Equal(t, game.PlayerID("player-3"), res.Context.KillRanking[0].Player)
}
