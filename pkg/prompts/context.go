// Package prompts composes the structured context object handed to the
// external action generator. Prompt string assembly and model calls
// stay outside the core; this package only decides what each agent is
// allowed to know.
package prompts

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/skeld-engine/pkg/belief"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
	"github.com/jwebster45206/skeld-engine/pkg/meeting"
	"github.com/jwebster45206/skeld-engine/pkg/risk"
	"github.com/jwebster45206/skeld-engine/pkg/speech"
)

const shortTermTurns = 5

// MeetingContext is the meeting-only overlay.
type MeetingContext struct {
	Stage            meeting.Stage `json:"stage"`
	Round            int           `json:"round"`
	Role             meeting.Role  `json:"role"`
	Style            meeting.Style `json:"style"`
	StageInstruction string        `json:"stage_instruction"`
	RoleInstruction  string        `json:"role_instruction"`
	StyleInstruction string        `json:"style_instruction"`
}

// RegenerateNotice tells the generator why its previous draft was
// rejected and that it must produce a new one.
type RegenerateNotice struct {
	Attempt int            `json:"attempt"`
	Score   int            `json:"score"`
	Reasons []speech.Match `json:"reasons"`
}

// AgentContext is the complete per-turn world view supplied to the
// generator. It is the agent's only window into the game: a filtered,
// subjective projection of global state.
type AgentContext struct {
	GameID   uuid.UUID     `json:"game_id"`
	Agent    game.PlayerID `json:"agent"`
	Name     string        `json:"name"`
	Role     game.Role     `json:"role"`
	Alive    bool          `json:"alive"`
	Ghost    bool          `json:"ghost"`
	Timestep int           `json:"timestep"`
	Location game.RoomID   `json:"location"`

	ShortTermMemory []ledger.PresenceEntry `json:"short_term_memory,omitempty"`
	WitnessedCrimes []ledger.Crime         `json:"witnessed_crimes,omitempty"`

	// Role-specific overlays. Dead agents get none of these.
	Beliefs     belief.Matrix `json:"beliefs,omitempty"`
	DangerScore int           `json:"danger_score,omitempty"` // crewmate only
	KillRanking []risk.Target `json:"kill_ranking,omitempty"` // impostor only
	Meeting     *MeetingContext `json:"meeting,omitempty"`

	VCrew float64 `json:"v_crew"`
	VImp  float64 `json:"v_imp"`

	Regenerate *RegenerateNotice `json:"regenerate,omitempty"`
}

// Build assembles the context for one agent turn. Dead agents receive
// the reduced ghost context: no belief overlay, no meeting role,
// movement and tasks only.
func Build(gameID uuid.UUID, p game.Player, snap game.Snapshot, led *ledger.Ledger, beliefs belief.Matrix, ranking []risk.Target, mc *MeetingContext) AgentContext {
	ctx := AgentContext{
		GameID:   gameID,
		Agent:    p.ID,
		Name:     p.DisplayName(),
		Role:     p.Role,
		Alive:    p.Alive,
		Ghost:    !p.Alive,
		Timestep: snap.Timestep,
		Location: p.Location,
	}

	if led != nil {
		if n := len(led.Presence); n > shortTermTurns {
			ctx.ShortTermMemory = led.Presence[n-shortTermTurns:]
		} else {
			ctx.ShortTermMemory = led.Presence
		}
		ctx.WitnessedCrimes = led.WitnessedCrimes
	}

	if !p.Alive {
		return ctx // ghosts get no overlay, no meeting role
	}

	ctx.Beliefs = beliefs
	ctx.Meeting = mc
	switch p.Role {
	case game.RoleImpostor:
		ctx.KillRanking = ranking
	case game.RoleCrewmate:
		ctx.DangerScore = DangerScore(p, snap, led)
	}
	return ctx
}

// NewMeetingContext expands an assignment into the full meeting overlay.
func NewMeetingContext(st *meeting.State, asg meeting.Assignment) *MeetingContext {
	return &MeetingContext{
		Stage:            st.Stage,
		Round:            st.Round,
		Role:             asg.Role,
		Style:            asg.Style,
		StageInstruction: st.Stage.Instruction(),
		RoleInstruction:  asg.Role.Instruction(),
		StyleInstruction: asg.Style.Instruction(),
	}
}

// DangerScore is a 0-100 crewmate self-preservation signal. High danger
// means stop tasking and seek safety.
func DangerScore(p game.Player, snap game.Snapshot, led *ledger.Ledger) int {
	if p.Role == game.RoleImpostor || !p.Alive {
		return 0
	}
	score := 0

	// Alone in the current room, judged from the latest presence entry.
	alone := true
	if led != nil && len(led.Presence) > 0 {
		alone = len(led.Presence[len(led.Presence)-1].Seen) == 0
	}
	if alone {
		score += 30
	}

	if snap.SabotageActive {
		score += 20
		if snap.SabotageCritical {
			score += 15
		}
	}

	// A witnessed kill in the current room means a body (and a killer)
	// nearby.
	if led != nil {
		for _, c := range led.WitnessedCrimes {
			if c.Kind == game.EventKill && c.Room == p.Location {
				score += 25
				break
			}
		}
	}

	if snap.LivingCrew+snap.LivingImpostors <= 3 {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}
