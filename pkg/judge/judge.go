// Package judge classifies finalized meeting statements as
// hallucinations. Two standards apply: crewmates are held to ground
// truth with zero tolerance, impostors only to their own prior
// statements. Lying is an impostor's job; changing the story is not.
package judge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/skeld-engine/pkg/chat"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

// Verdict is the classification of one finalized statement.
type Verdict struct {
	Hallucination bool   `json:"hallucination"`
	Reasoning     string `json:"reasoning"`
}

// Judge classifies statements. The rule-based implementation below can
// be swapped for an LLM-backed referee without touching callers.
type Judge interface {
	Classify(statement string, speaker game.Player, led *ledger.Ledger, transcript chat.Transcript) Verdict
}

// RuleJudge is the deterministic fact-checking referee.
type RuleJudge struct {
	locationRe *regexp.Regexp
	sightingRe *regexp.Regexp
	playerRe   *regexp.Regexp
	crimeRe    *regexp.Regexp
	roomRe     *regexp.Regexp
	title      cases.Caser
}

var _ Judge = (*RuleJudge)(nil)

// NewRuleJudge builds a judge over the ship map's room vocabulary.
func NewRuleJudge(shipMap *game.ShipMap) *RuleJudge {
	rp := roomPattern(shipMap)
	return &RuleJudge{
		locationRe: regexp.MustCompile(`\bi (?:was|am|stayed|have been) (?:in|at) (` + rp + `)`),
		sightingRe: regexp.MustCompile(`\bi (?:saw|noticed|watched|witnessed)\b(.*?)\b(?:in|at) (` + rp + `)`),
		playerRe:   regexp.MustCompile(`\bplayer\s*(\d+)`),
		crimeRe:    regexp.MustCompile(`\bi (?:saw|watched|witnessed)\b.*?\b(kill|murder|vent)`),
		roomRe:     regexp.MustCompile(`\b(` + rp + `)\b`),
		title:      cases.Title(language.English),
	}
}

// Classify runs the pipeline: extract checkable claims, compare against
// the applicable standard, and fall back to a holistic pass when no
// checkable claim was found. Runs once per finalized statement.
func (j *RuleJudge) Classify(statement string, speaker game.Player, led *ledger.Ledger, transcript chat.Transcript) Verdict {
	text := normalize(statement)
	if text == "" {
		return Verdict{Reasoning: "Empty statement, nothing to check."}
	}

	if speaker.Role == game.RoleImpostor {
		return j.classifyImpostor(text, speaker, transcript)
	}
	return j.classifyCrewmate(text, led)
}

// classifyCrewmate checks every extracted claim against the ground
// truth ledger. Any mismatch is a hallucination.
func (j *RuleJudge) classifyCrewmate(text string, led *ledger.Ledger) Verdict {
	checked := false

	for _, m := range j.locationRe.FindAllStringSubmatch(text, -1) {
		checked = true
		room := game.RoomID(m[1])
		if led == nil || !led.Visited(room) {
			return Verdict{
				Hallucination: true,
				Reasoning:     fmt.Sprintf("Claimed to be in %s, but the logs do not confirm this.", j.title.String(m[1])),
			}
		}
	}

	for _, m := range j.sightingRe.FindAllStringSubmatch(text, -1) {
		checked = true
		room := game.RoomID(m[2])
		if led == nil || !led.Visited(room) {
			return Verdict{
				Hallucination: true,
				Reasoning:     fmt.Sprintf("Claimed an observation in %s without ever being there.", j.title.String(m[2])),
			}
		}
		// When the sighting names a player, the co-occupancy record
		// must back it up.
		if pm := j.playerRe.FindStringSubmatch(m[1]); pm != nil {
			seen := game.PlayerID("player-" + pm[1])
			if !led.SawInRoom(room, seen) {
				return Verdict{
					Hallucination: true,
					Reasoning:     fmt.Sprintf("Claimed to have seen Player %s in %s, but never shared that room with them.", pm[1], j.title.String(m[2])),
				}
			}
		}
	}

	if m := j.crimeRe.FindStringSubmatch(text); m != nil {
		checked = true
		isVent := m[1] == "vent"
		if led == nil || (isVent && !led.SawVent()) || (!isVent && !led.SawKill()) {
			return Verdict{
				Hallucination: true,
				Reasoning:     fmt.Sprintf("Claimed to have witnessed a %s with no eyewitness record.", m[1]),
			}
		}
	}

	// Holistic pass: no checkable claim extracted means nothing to refute.
	if !checked {
		return Verdict{Reasoning: "No checkable factual claims."}
	}
	return Verdict{Reasoning: "Statement is consistent with ground truth."}
}

// classifyImpostor checks the statement only against the speaker's own
// prior statements. Fabricating is permitted; contradicting a previous
// own claim is not.
func (j *RuleJudge) classifyImpostor(text string, speaker game.Player, transcript chat.Transcript) Verdict {
	current := j.roomSet(text)
	if len(current) == 0 {
		return Verdict{Reasoning: "No location claims to cross-check."}
	}

	prior := make(map[string]bool)
	for _, msg := range transcript.By(speaker.ID) {
		for room := range j.roomSet(normalize(msg.Content)) {
			prior[room] = true
		}
	}
	if len(prior) == 0 {
		return Verdict{Reasoning: "First statement, nothing to contradict."}
	}

	for room := range current {
		if prior[room] {
			return Verdict{Reasoning: "Statement is self-consistent with prior claims."}
		}
	}
	return Verdict{
		Hallucination: true,
		Reasoning:     "Current statement contradicts a previous claim about location.",
	}
}

func (j *RuleJudge) roomSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range j.roomRe.FindAllStringSubmatch(text, -1) {
		out[m[1]] = true
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// roomPattern builds a regex alternation of room names, longest first
// so "upper engine" wins over any shorter overlap.
func roomPattern(shipMap *game.ShipMap) string {
	ids := shipMap.RoomIDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, regexp.QuoteMeta(string(id)))
	}
	sort.Slice(names, func(i, k int) bool {
		if len(names[i]) != len(names[k]) {
			return len(names[i]) > len(names[k])
		}
		return names[i] < names[k]
	})
	return strings.Join(names, "|")
}
