// Package meeting assigns discussion roles and speaking styles per
// discussion round, and models the fixed three-stage meeting flow.
package meeting

import "github.com/jwebster45206/skeld-engine/pkg/game"

// Stage is one of the three fixed meeting stages.
type Stage int

const (
	StageTestimony Stage = iota // facts only, no accusations
	StageAccusation             // accusation and defense
	StageFinal                  // final arguments, no new accusations
)

func (s Stage) String() string {
	switch s {
	case StageTestimony:
		return "testimony"
	case StageAccusation:
		return "accusation"
	case StageFinal:
		return "final-arguments"
	default:
		return "unknown"
	}
}

// Instruction returns the stage ground rules included in the generator
// context.
func (s Stage) Instruction() string {
	switch s {
	case StageTestimony:
		return "Share facts only. State where you were, who you saw, and what you witnessed. Do not accuse anyone yet."
	case StageAccusation:
		return "Compare testimonies and call out contradictions with specifics. If accused, defend yourself with your exact location history."
	case StageFinal:
		return "Summarize the strongest evidence and state your voting intent. Do not introduce new accusations."
	default:
		return ""
	}
}

// Role is a discussion role, recomputed every round.
type Role string

const (
	RoleCounterAttacker Role = "Counter-Attacker"
	RoleDefender        Role = "Defender"
	RoleProsecutor      Role = "Prosecutor"
	RoleDetective       Role = "Detective"
	RoleBystander       Role = "Bystander"
)

// Instruction returns the role's discussion brief for the generator
// context.
func (r Role) Instruction() string {
	switch r {
	case RoleProsecutor:
		return "You hold hard eyewitness evidence. Present exactly what you saw, where and when, and name the player."
	case RoleDetective:
		return "You witnessed no crime but hold location data. Ask targeted questions and cross-reference testimonies; do not accuse without evidence."
	case RoleDefender:
		return "You are under suspicion. Defend yourself with specific rooms, timesteps and vouching players. Stay calm and factual."
	case RoleBystander:
		return "You have no strong evidence and are not accused. Listen, point out contradictions, and vouch only for what you personally saw."
	case RoleCounterAttacker:
		return "You are accused but hold eyewitness evidence of the real crime. Lead with your evidence, then explain the frame job."
	default:
		return ""
	}
}

// Style is a speaking-style variation. Agents sharing a role in the
// same round each get a distinct style to avoid near-duplicate phrasing.
type Style int

const (
	StyleDirect Style = iota
	StyleMethodical
	StyleUrgent
	StyleAnalytical
	StyleConversational
	styleCount
)

func (s Style) String() string {
	switch s {
	case StyleDirect:
		return "direct"
	case StyleMethodical:
		return "methodical"
	case StyleUrgent:
		return "urgent"
	case StyleAnalytical:
		return "analytical"
	case StyleConversational:
		return "conversational"
	default:
		return "unknown"
	}
}

// Instruction returns the style guidance appended after the role.
func (s Style) Instruction() string {
	switch s {
	case StyleDirect:
		return "Be direct and brief. Short sentences, most important fact first."
	case StyleMethodical:
		return "Be detailed and methodical. Walk through the evidence step by step."
	case StyleUrgent:
		return "Be emotional and urgent. Use rhetorical questions to make the point."
	case StyleAnalytical:
		return "Be analytical. Present your reasoning as an if-then chain."
	case StyleConversational:
		return "Be conversational and natural, but keep the facts accurate."
	default:
		return ""
	}
}

// State is the mutable meeting context: current stage and round, and
// who stands accused so far in the discussion.
type State struct {
	Stage   Stage                  `json:"stage"`
	Round   int                    `json:"round"`
	Accused map[game.PlayerID]bool `json:"accused,omitempty"`
}

// IsAccused reports whether the player is currently under accusation.
func (s *State) IsAccused(id game.PlayerID) bool {
	return s != nil && s.Accused[id]
}

// Assignment pairs the round's role with its speaking style.
type Assignment struct {
	Role  Role  `json:"role"`
	Style Style `json:"style"`
}
