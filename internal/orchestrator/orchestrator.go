// Package orchestrator drives one agent turn end to end: ledger
// refresh, critic and risk context, generator call, speech gate with
// bounded retries, judge verdict, belief updates and reward resolution.
// Turns run strictly sequentially in roster order within a timestep.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/skeld-engine/internal/services"
	"github.com/jwebster45206/skeld-engine/pkg/belief"
	"github.com/jwebster45206/skeld-engine/pkg/chat"
	"github.com/jwebster45206/skeld-engine/pkg/critic"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/judge"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
	"github.com/jwebster45206/skeld-engine/pkg/meeting"
	"github.com/jwebster45206/skeld-engine/pkg/prompts"
	"github.com/jwebster45206/skeld-engine/pkg/reward"
	"github.com/jwebster45206/skeld-engine/pkg/risk"
	"github.com/jwebster45206/skeld-engine/pkg/speech"
)

// Game is the per-session decision-support state.
type Game struct {
	Session    *game.Session
	Arena      *ledger.Arena
	Beliefs    *belief.Model
	Rewards    *reward.Engine
	Transcript chat.Transcript

	meetingState *meeting.State
	assignments  map[game.PlayerID]meeting.Assignment
	assignedKey  string // stage/round the current assignments belong to
	persisted    int    // reward records already flushed to the store
}

// MeetingInfo is the engine's view of the active meeting, if any.
type MeetingInfo struct {
	Stage   meeting.Stage   `json:"stage"`
	Round   int             `json:"round"`
	Accused []game.PlayerID `json:"accused,omitempty"`
}

// VoteOutcome carries engine-resolved social results for the turn.
type VoteOutcome struct {
	TargetRole   *game.Role `json:"target_role,omitempty"`
	SurvivedVote bool       `json:"survived_vote,omitempty"`
	LieSuccess   bool       `json:"lie_success,omitempty"`
	LieRefuted   bool       `json:"lie_refuted,omitempty"`
}

// TurnRequest is one agent cycle's input from the game engine.
type TurnRequest struct {
	GameID   uuid.UUID     `json:"game_id"`
	Agent    game.PlayerID `json:"agent"`
	Snapshot game.Snapshot `json:"snapshot"`

	// Events are authoritative log records not yet submitted; they are
	// applied before any context is composed.
	Events []game.Event `json:"events,omitempty"`

	// Roster, when present, replaces the engine's current roster view.
	Roster []game.Player `json:"roster,omitempty"`

	Meeting *MeetingInfo `json:"meeting,omitempty"`
	Vote    *VoteOutcome `json:"vote,omitempty"`
}

// SpeechResult reports the gate's work for one committed statement.
type SpeechResult struct {
	Statement    string         `json:"statement"`
	Accepted     bool           `json:"accepted"`
	Score        int            `json:"score"`
	Reasons      []speech.Match `json:"reasons,omitempty"`
	Attempts     int            `json:"attempts"`
	UsedFallback bool           `json:"used_fallback,omitempty"`
}

// TurnResult is everything the engine gets back for one agent cycle.
type TurnResult struct {
	Context   prompts.AgentContext `json:"context"`
	Candidate *services.Candidate  `json:"candidate,omitempty"`
	Speech    *SpeechResult        `json:"speech,omitempty"`
	Judge     *judge.Verdict       `json:"judge,omitempty"`
	Reward    float64              `json:"reward"`
	Category  reward.Category      `json:"category"`
	Beliefs   belief.Matrix        `json:"beliefs,omitempty"`
}

// Orchestrator owns all running games and their component wiring.
type Orchestrator struct {
	shipMap     *game.ShipMap
	gen         services.ActionGenerator
	store       services.Store
	critic      critic.Estimator
	validator   *speech.Validator
	judge       judge.Judge
	assigner    *meeting.Assigner
	logger      *slog.Logger
	retryBudget int

	games map[uuid.UUID]*Game
}

// New wires an orchestrator. retryBudget is the total number of speech
// drafts allowed per statement, including the first.
func New(shipMap *game.ShipMap, gen services.ActionGenerator, store services.Store, seed int64, retryBudget int, logger *slog.Logger) *Orchestrator {
	if retryBudget < 1 {
		retryBudget = 1
	}
	return &Orchestrator{
		shipMap:     shipMap,
		gen:         gen,
		store:       store,
		critic:      critic.Heuristic{},
		validator:   speech.NewValidator(shipMap, logger),
		judge:       judge.NewRuleJudge(shipMap),
		assigner:    meeting.NewAssigner(seed),
		logger:      logger,
		retryBudget: retryBudget,
		games:       make(map[uuid.UUID]*Game),
	}
}

// CreateGame starts a session for the roster and persists it.
func (o *Orchestrator) CreateGame(ctx context.Context, players []game.Player) (*Game, error) {
	s, err := game.NewSession(players)
	if err != nil {
		return nil, err
	}
	g := &Game{
		Session: s,
		Arena:   ledger.NewArena(players, o.shipMap, o.logger),
		Beliefs: belief.NewModel(players, o.shipMap, o.logger),
		Rewards: reward.NewEngine(o.logger),
	}
	o.games[s.ID] = g

	if err := o.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	o.logger.Info("game created", "game_id", s.ID, "players", len(players))
	return g, nil
}

// Game returns a running game by ID.
func (o *Orchestrator) Game(id uuid.UUID) (*Game, bool) {
	g, ok := o.games[id]
	return g, ok
}

// EndGame discards in-memory state; persisted records stay until their TTL.
func (o *Orchestrator) EndGame(id uuid.UUID) {
	delete(o.games, id)
}

// RunTurn executes one full agent cycle.
func (o *Orchestrator) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	g, ok := o.games[req.GameID]
	if !ok {
		return nil, fmt.Errorf("unknown game %q", req.GameID)
	}
	if len(req.Roster) > 0 {
		g.Session.UpdateRoster(req.Roster)
	}
	agent, ok := g.Session.Player(req.Agent)
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", req.Agent)
	}

	// 1. Refresh ledgers and beliefs from the new slice of the log.
	o.ingestEvents(g, req.Events)

	// 2. Meeting role assignment at the start of each stage.
	var mc *prompts.MeetingContext
	if req.Meeting != nil && agent.Alive {
		o.refreshMeeting(g, req.Meeting)
		if asg, ok := g.assignments[agent.ID]; ok {
			mc = prompts.NewMeetingContext(g.meetingState, asg)
		}
	} else if req.Meeting == nil {
		g.meetingState = nil
		g.assignments = nil
		g.assignedKey = ""
	}

	// 3. Critic and risk context.
	vCrew, vImp := o.critic.Value(req.Snapshot)
	var ranking []risk.Target
	if agent.Role == game.RoleImpostor && agent.Alive {
		ranking = risk.Rank(agent.ID, o.killCandidates(g, agent), agent.Location,
			g.Arena.Ledger(agent.ID), o.shipMap)
	}

	agentCtx := prompts.Build(g.Session.ID, agent, req.Snapshot,
		g.Arena.Ledger(agent.ID), o.beliefOverlay(g, agent), ranking, mc)
	agentCtx.VCrew, agentCtx.VImp = vCrew, vImp

	// 4. External generation plus the speech gate.
	cand, speechRes, err := o.generate(ctx, g, agent, agentCtx)
	if err != nil {
		return nil, err
	}

	// 5. Judge the finalized statement, once.
	var verdict *judge.Verdict
	if speechRes != nil {
		v := o.judge.Classify(speechRes.Statement, agent, g.Arena.Ledger(agent.ID), g.Transcript)
		verdict = &v
		if err := g.Transcript.Append(chat.Message{
			Speaker:  agent.ID,
			Content:  speechRes.Statement,
			Round:    o.meetingRound(g),
			Stage:    o.meetingStage(g),
			Timestep: req.Snapshot.Timestep,
		}); err != nil {
			return nil, fmt.Errorf("failed to commit statement: %w", err)
		}
	}

	// 6. Reward resolution.
	value, category := g.Rewards.Reward(agent.ID, req.Snapshot,
		o.buildOutcome(g, agent, cand, verdict, req.Vote))

	res := &TurnResult{
		Context:   agentCtx,
		Candidate: cand,
		Speech:    speechRes,
		Judge:     verdict,
		Reward:    value,
		Category:  category,
		Beliefs:   g.Beliefs.Snapshot(agent.ID),
	}

	if err := o.persist(ctx, g); err != nil {
		return nil, err
	}
	return res, nil
}

// ingestEvents applies a new slice of the authoritative log: the arena
// rebuild first, then belief updates for every agent that witnessed
// each event, in roster order for determinism.
func (o *Orchestrator) ingestEvents(g *Game, events []game.Event) {
	if len(events) == 0 {
		return
	}
	g.Session.AppendEvents(events)
	g.Arena.Rebuild(g.Session)

	for _, ev := range events {
		// Kill facts seed the actor's deception ledger; the claimed
		// alibi arrives later with the generator's candidate.
		if ev.Kind == game.EventKill {
			if actor, ok := g.Session.Player(ev.Actor); ok && actor.Role == game.RoleImpostor {
				d := ledger.Deception{KillRoom: ev.Room, KillVictim: ev.Victim}
				if led := g.Arena.Ledger(ev.Actor); led != nil && led.Deception != nil {
					d.ClaimedAlibi = led.Deception.ClaimedAlibi
				}
				if err := g.Arena.RegisterDeception(ev.Actor, d); err != nil {
					o.logger.Warn("failed to record kill facts", "actor", ev.Actor, "error", err)
				}
			}
		}
		for _, p := range g.Session.Players {
			if _, err := g.Beliefs.Update(p.ID, ev, g.Arena.Ledger(p.ID)); err != nil {
				o.logger.Warn("belief update skipped", "agent", p.ID, "error", err)
			}
		}
	}
}

func (o *Orchestrator) refreshMeeting(g *Game, info *MeetingInfo) {
	accused := make(map[game.PlayerID]bool, len(info.Accused))
	for _, id := range info.Accused {
		accused[id] = true
	}
	g.meetingState = &meeting.State{
		Stage:   info.Stage,
		Round:   info.Round,
		Accused: accused,
	}

	// Roles are recomputed once per living agent at the start of each
	// stage, not fixed for the whole meeting.
	key := fmt.Sprintf("%d/%d", info.Stage, info.Round)
	if key != g.assignedKey {
		g.assignments = o.assigner.AssignAll(g.Session.Players, func(id game.PlayerID) *ledger.Ledger {
			return g.Arena.Ledger(id)
		}, g.meetingState)
		g.assignedKey = key
	}
}

// generate runs the reject-and-regenerate loop. The bounded retry is an
// explicit counter; exhausting it falls back to the best accepted draft
// or the pre-scored safe filler.
func (o *Orchestrator) generate(ctx context.Context, g *Game, agent game.Player, agentCtx prompts.AgentContext) (*services.Candidate, *SpeechResult, error) {
	var (
		cand      *services.Candidate
		bestScore = -1 << 30
		bestDraft string
		bestRes   speech.Result
		attempts  int
	)

	for attempts = 1; attempts <= o.retryBudget; attempts++ {
		c, err := o.gen.Generate(ctx, agentCtx)
		if err != nil {
			return nil, nil, fmt.Errorf("action generation failed: %w", err)
		}
		cand = c

		// A declared cover story enters the deception ledger before the
		// draft is scored, so the gate validates the lie the impostor
		// intends to tell rather than the ground truth.
		if c.Alibi != "" && agent.Role == game.RoleImpostor {
			o.registerAlibi(g, agent.ID, c.Alibi)
		}

		if c.Speech == "" {
			return cand, nil, nil // action-only turn, no gate to pass
		}

		res := o.validator.Validate(c.Speech, agent, g.Arena.Ledger(agent.ID), g.Session.Players)
		if res.Score > bestScore {
			bestScore = res.Score
			bestDraft = c.Speech
			bestRes = res
		}
		if res.Accepted {
			return cand, &SpeechResult{
				Statement: c.Speech,
				Accepted:  true,
				Score:     res.Score,
				Reasons:   res.Reasons,
				Attempts:  attempts,
			}, nil
		}

		o.logger.Debug("speech rejected, regenerating",
			"agent", agent.ID, "attempt", attempts, "score", res.Score)
		agentCtx.Regenerate = &prompts.RegenerateNotice{
			Attempt: attempts,
			Score:   res.Score,
			Reasons: res.Reasons,
		}
	}

	if bestScore >= 0 {
		return cand, &SpeechResult{
			Statement: bestDraft,
			Accepted:  true,
			Score:     bestScore,
			Reasons:   bestRes.Reasons,
			Attempts:  o.retryBudget,
		}, nil
	}

	// Budget exhausted with nothing acceptable: commit the safe filler
	// rather than an unscored statement.
	o.logger.Info("speech retry budget exhausted, using fallback",
		"agent", agent.ID, "best_score", bestScore)
	return cand, &SpeechResult{
		Statement:    speech.Fallback,
		Accepted:     true,
		Score:        0,
		Attempts:     o.retryBudget,
		UsedFallback: true,
	}, nil
}

func (o *Orchestrator) registerAlibi(g *Game, impostor game.PlayerID, alibi game.RoomID) {
	d := ledger.Deception{ClaimedAlibi: alibi}
	if led := g.Arena.Ledger(impostor); led != nil && led.Deception != nil {
		d.KillRoom = led.Deception.KillRoom
		d.KillVictim = led.Deception.KillVictim
	}
	if err := g.Arena.RegisterDeception(impostor, d); err != nil {
		o.logger.Warn("ignoring invalid alibi claim", "agent", impostor, "error", err)
	}
}

func (o *Orchestrator) buildOutcome(g *Game, agent game.Player, cand *services.Candidate, verdict *judge.Verdict, vote *VoteOutcome) reward.Outcome {
	out := reward.Outcome{
		Role:  agent.Role,
		Team:  game.Team(agent.Role),
		Alive: agent.Alive,
	}
	if verdict != nil {
		out.Hallucination = verdict.Hallucination
	}
	if vote != nil {
		out.VoteTarget = vote.TargetRole
		out.SurvivedVote = vote.SurvivedVote
		out.LieSuccess = vote.LieSuccess
		out.LieRefuted = vote.LieRefuted
	}
	if cand != nil && cand.Action != "" {
		out.Action = &reward.Action{
			Kind:         cand.Action,
			WitnessCount: o.witnessCount(g, agent),
		}
	}
	return out
}

// witnessCount is the number of other living players in the agent's room.
func (o *Orchestrator) witnessCount(g *Game, agent game.Player) int {
	n := 0
	for _, p := range g.Session.Living() {
		if p.ID != agent.ID && p.Location == agent.Location {
			n++
		}
	}
	return n
}

func (o *Orchestrator) beliefOverlay(g *Game, agent game.Player) belief.Matrix {
	if !agent.Alive {
		return nil
	}
	return g.Beliefs.Snapshot(agent.ID)
}

func (o *Orchestrator) killCandidates(g *Game, impostor game.Player) []game.PlayerID {
	var out []game.PlayerID
	for _, p := range g.Session.Living() {
		if p.ID != impostor.ID && p.Role == game.RoleCrewmate && p.Location == impostor.Location {
			out = append(out, p.ID)
		}
	}
	return out
}

func (o *Orchestrator) meetingRound(g *Game) int {
	if g.meetingState == nil {
		return 0
	}
	return g.meetingState.Round
}

func (o *Orchestrator) meetingStage(g *Game) int {
	if g.meetingState == nil {
		return 0
	}
	return int(g.meetingState.Stage)
}

func (o *Orchestrator) persist(ctx context.Context, g *Game) error {
	if err := o.store.SaveSession(ctx, g.Session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	recs := g.Rewards.Records()
	if len(recs) > g.persisted {
		if err := o.store.AppendRewards(ctx, g.Session.ID, recs[g.persisted:]); err != nil {
			return fmt.Errorf("failed to persist rewards: %w", err)
		}
		g.persisted = len(recs)
	}
	snapshots := make(map[game.PlayerID]belief.Matrix, len(g.Session.Players))
	for _, p := range g.Session.Players {
		snapshots[p.ID] = g.Beliefs.Snapshot(p.ID)
	}
	if err := o.store.SaveBeliefs(ctx, g.Session.ID, snapshots); err != nil {
		return fmt.Errorf("failed to persist beliefs: %w", err)
	}
	return nil
}
