package game

// Snapshot is the engine's immutable per-timestep view of the game.
// Consumed by the critic and the risk matrix; the core never derives
// these counts itself.
type Snapshot struct {
	Timestep        int     `json:"timestep"`
	LivingCrew      int     `json:"living_crew"`
	LivingImpostors int     `json:"living_impostors"`
	DeadCrew        int     `json:"dead_crew"`
	DeadImpostors   int     `json:"dead_impostors"`
	TaskPct         float64 `json:"task_pct"` // real tasks only; fakes never count
	SabotageActive  bool    `json:"sabotage_active"`
	// SabotageCritical marks an oxygen or reactor sabotage, the kinds
	// that end the game on a timer if left unfixed.
	SabotageCritical bool `json:"sabotage_critical,omitempty"`
	Winner          *Team   `json:"winner,omitempty"` // set when the game ended this turn
}

// Critical reports whether the game is in an endgame Critical State.
// Holds when living crew <= 3, or living crew <= living impostors + 2.
// Crew count cannot increase, so once true it stays true.
func (s Snapshot) Critical() bool {
	return s.LivingCrew <= 3 || s.LivingCrew <= s.LivingImpostors+2
}
