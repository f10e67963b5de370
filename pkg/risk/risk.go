// Package risk ranks kill targets for impostor agents. The ranking is
// advisory context for the action generator; it never selects or
// vetoes an action.
package risk

import (
	"sort"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

// Target is one ranked kill candidate.
type Target struct {
	Player     game.PlayerID `json:"player"`
	Witnesses  int           `json:"witnesses"`
	Exposure   float64       `json:"exposure"`
	VentEscape bool          `json:"vent_escape"`
	Risk       float64       `json:"risk"`
}

// Rank scores each candidate and returns them ascending by risk,
// safest first.
//
//	risk = min(1, witnessRisk + 0.4×exposure + escapePenalty)
//
// witnessRisk = min(1, (candidates−1)×0.35): killing one target leaves
// the rest as witnesses. exposure = co-location count with the target /
// total timesteps elapsed. escapePenalty = 0.25 when no vent is
// reachable from the kill room.
func Rank(impostor game.PlayerID, candidates []game.PlayerID, room game.RoomID, led *ledger.Ledger, shipMap *game.ShipMap) []Target {
	if len(candidates) == 0 {
		return nil
	}

	witnesses := len(candidates) - 1
	witnessRisk := clamp(float64(witnesses) * 0.35)

	ventEscape := shipMap.HasVent(room)
	escapePenalty := 0.25
	if ventEscape {
		escapePenalty = 0.0
	}

	total := 1
	if led != nil && len(led.Presence) > 0 {
		total = len(led.Presence)
	}

	out := make([]Target, 0, len(candidates))
	for _, c := range candidates {
		exposure := 0.0
		if led != nil {
			exposure = clamp(float64(led.CoLocationCount(c)) / float64(total))
		}
		out = append(out, Target{
			Player:     c,
			Witnesses:  witnesses,
			Exposure:   exposure,
			VentEscape: ventEscape,
			Risk:       clamp(witnessRisk + 0.4*exposure + escapePenalty),
		})
	}

	sort.SliceStable(out, func(i, k int) bool {
		return out[i].Risk < out[k].Risk
	})
	return out
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
