// Package critic estimates per-team win probability from a game-state
// snapshot. The shipped estimator is a fixed heuristic behind a stable
// interface so a learned critic can replace it without touching callers.
package critic

import (
	"math"

	"github.com/jwebster45206/skeld-engine/pkg/game"
)

// Estimator produces V(s) per team with vCrew + vImp == 1.0.
type Estimator interface {
	Value(snap game.Snapshot) (vCrew, vImp float64)
}

// Heuristic is the deterministic placeholder estimator.
type Heuristic struct{}

var _ Estimator = Heuristic{}

// Value returns the crew and impostor win probabilities.
//
// Terminal overrides first: all impostors gone → 1.0 for crew; crew at
// parity or worse → 0.0; real tasks complete → 1.0. Otherwise
//
//	vCrew = 0.1 + taskFactor + numbersFactor − sabotagePenalty
//
// with taskFactor = (taskPct/100)×0.5, numbersFactor =
// ((crew−imps)/(crew+imps))×0.4, sabotagePenalty = 0.1 when active.
func (Heuristic) Value(snap game.Snapshot) (float64, float64) {
	vCrew := crewValue(snap)
	return vCrew, round4(1.0 - vCrew)
}

func crewValue(snap game.Snapshot) float64 {
	crew := snap.LivingCrew
	imps := snap.LivingImpostors

	if imps == 0 {
		return 1.0
	}
	if crew <= imps {
		return 0.0
	}
	if snap.TaskPct >= 100.0 {
		return 1.0
	}

	taskFactor := (snap.TaskPct / 100.0) * 0.5
	numbersFactor := float64(crew-imps) / float64(crew+imps) * 0.4
	sabPenalty := 0.0
	if snap.SabotageActive {
		sabPenalty = 0.1
	}

	return clamp(round4(0.1 + taskFactor + numbersFactor - sabPenalty))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
