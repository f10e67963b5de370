// Package speech scores candidate meeting statements against the
// speaker's line-of-sight truth table before they are committed to the
// game. A negative total means the draft must be regenerated.
package speech

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/ledger"
)

// Match is one scored category hit.
type Match struct {
	Category string `json:"category"`
	Points   int    `json:"points"`
	Detail   string `json:"detail"`
}

// Result is the validation verdict for one draft.
type Result struct {
	Accepted bool    `json:"accepted"`
	Score    int     `json:"score"`
	Reasons  []Match `json:"reasons"`
}

// Fallback is the pre-scored safe default statement committed when the
// retry budget is exhausted. Bystander-category filler; never negative.
const Fallback = "I didn't see anything suspicious this round. I don't have enough information yet."

var colors = []string{
	"red", "blue", "green", "pink", "orange", "yellow",
	"black", "white", "purple", "brown", "cyan", "lime",
}

// Validator scores drafts. Scoring is additive across independently
// matched categories.
type Validator struct {
	logger  *slog.Logger
	shipMap *game.ShipMap

	metaRes     []*regexp.Regexp
	incrimRes   []*regexp.Regexp
	spatialRe   *regexp.Regexp
	wasInRe     *regexp.Regexp
	obsRes      []*regexp.Regexp
	denialRe    *regexp.Regexp
	killLocRe   func(room string) *regexp.Regexp
	alibiRe     *regexp.Regexp
	sightingRe  *regexp.Regexp
	killWordRe  *regexp.Regexp
	ventWordRe  *regexp.Regexp
	fromToRe    *regexp.Regexp
}

// NewValidator builds a validator over the ship map's room vocabulary.
func NewValidator(shipMap *game.ShipMap, logger *slog.Logger) *Validator {
	rp := "(?:" + roomAlternation(shipMap) + ")"
	cp := "(?:" + strings.Join(colors, "|") + ")"

	return &Validator{
		logger:  logger,
		shipMap: shipMap,
		metaRes: compileAll(
			`\bverified presence log\b`,
			`\bgame engine\b`,
			`\bsystem log\b`,
			`\bmemory stream\b`,
			`\btimestep\s*\d+\b`,
			`\bt\d+\b`,
			`\bobservation history\b`,
			`\baction history\b`,
			`\bpresence log\b`,
		),
		incrimRes: compileAll(
			`\bi killed\b`, `\bi did kill\b`, `\bi murdered\b`,
			`\bi vented\b`, `\bi used (?:the )?vent\b`,
		),
		spatialRe: regexp.MustCompile(
			`i was (?:in|at) (` + rp + `)` +
				`.*?(?:so|therefore|thus|which means|that means|this means)` +
				`.*?(?:you|they|he|she|player\s*\d+[\w\s:]*?)\s+` +
				`(?:weren't|wasn't|couldn't|could not|were not|was not|can't|cannot)\s+` +
				`(?:have been\s+)?(?:in|at)\s+(` + rp + `)`),
		wasInRe: regexp.MustCompile(`\bi was (?:in|at) (` + rp + `)`),
		obsRes: compileAll(
			`\bi (?:saw|noticed|watched|witnessed) .+? (?:in|at) (`+rp+`)`,
			`\bwhen i was (?:in|at) (`+rp+`)`,
			`\bin (`+rp+`),?\s+i (?:saw|noticed|watched|witnessed)`,
		),
		denialRe: regexp.MustCompile(
			`(?:player\s*\d+[\w\s:]*?|` + cp + `)\s+` +
				`(?:was not|wasn't|were not|weren't|couldn't have been|could not have been)\s+` +
				`(?:in|at)\s+(` + rp + `)`),
		killLocRe: func(room string) *regexp.Regexp {
			return regexp.MustCompile(`\bi was (?:in|at) ` + regexp.QuoteMeta(room) + `\b`)
		},
		alibiRe:    regexp.MustCompile(`\bi was with ([\w\s:]+?) (?:in|at) (` + rp + `)`),
		sightingRe: regexp.MustCompile(`\bi saw [\w\s:]+ (?:in|at|near|heading|going)`),
		killWordRe: regexp.MustCompile(`\b(?:kill|murder|stab|attack)`),
		ventWordRe: regexp.MustCompile(`\bvent(?:ed|ing)?\b`),
		fromToRe:   regexp.MustCompile(`\bfrom (` + rp + `) to (` + rp + `)`),
	}
}

// Validate builds the speaker's truth table and scores the draft.
// Score >= 0 accepts; the statement still goes to the judge afterwards
// for the separate hallucination classification.
func (v *Validator) Validate(draft string, p game.Player, led *ledger.Ledger, roster []game.Player) Result {
	truths := BuildTruthTable(p, led, roster)
	score, reasons := v.Score(draft, truths)
	res := Result{
		Accepted: score >= 0,
		Score:    score,
		Reasons:  reasons,
	}
	v.logger.Debug("speech scored",
		"agent", p.ID,
		"score", score,
		"accepted", res.Accepted)
	return res
}

// Score applies the scoring table to one draft. Hallucination-class
// matches are strongly negative, evidence-class matches positive by
// evidentiary strength, filler weakly positive.
func (v *Validator) Score(draft string, t TruthTable) (int, []Match) {
	score := 0
	var reasons []Match
	text := strings.ToLower(strings.Join(strings.Fields(draft), " "))

	add := func(category string, points int, detail string) {
		score += points
		reasons = append(reasons, Match{Category: category, Points: points, Detail: detail})
	}
	has := func(category string) bool {
		for _, r := range reasons {
			if r.Category == category {
				return true
			}
		}
		return false
	}

	// ── Hallucination filter ──

	for _, re := range v.metaRes {
		if m := re.FindString(text); m != "" {
			add("META-GAMING", -50, fmt.Sprintf("referenced game mechanic %q", m))
			break
		}
	}

	if t.IsImpostor && t.KillRoom != "" {
		for _, re := range v.incrimRes {
			if re.MatchString(text) {
				add("SELF-INCRIMINATION", -50, "confession detected")
				break
			}
		}
		if t.ClaimedAlibi != "" && t.KillRoom != t.ClaimedAlibi &&
			v.killLocRe(string(t.KillRoom)).MatchString(text) {
			add("SELF-INCRIMINATION", -50, fmt.Sprintf("revealed kill location %q", t.KillRoom))
		}
	}

	if m := v.spatialRe.FindStringSubmatch(text); m != nil && m[1] != m[2] {
		add("SPATIAL NON-SEQUITUR", -20, fmt.Sprintf("in %q, claimed knowledge of %q", m[1], m[2]))
	}

	// X-ray vision: claims about rooms outside the epistemic boundary.
	if !t.IsImpostor {
		for _, m := range v.wasInRe.FindAllStringSubmatch(text, -1) {
			if !t.RoomsVisited[game.RoomID(m[1])] {
				add("X-RAY VISION", -100, fmt.Sprintf("claimed to be in %q, never visited", m[1]))
				break
			}
		}
	}
	for _, re := range v.obsRes {
		if has("X-RAY VISION") {
			break
		}
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !t.RoomsVisited[game.RoomID(m[1])] {
				add("X-RAY VISION", -100, fmt.Sprintf("claimed observation in %q, never visited", m[1]))
				break
			}
		}
	}
	if !has("X-RAY VISION") {
		for _, m := range v.denialRe.FindAllStringSubmatch(text, -1) {
			if !t.RoomsVisited[game.RoomID(m[1])] {
				add("X-RAY VISION", -100, fmt.Sprintf("denied presence in %q, never visited", m[1]))
				break
			}
		}
	}

	// ── Hard evidence ──

	if t.SawKill && v.killWordRe.MatchString(text) {
		add("KILL WITNESS", 20, "referenced witnessed kill")
	}
	if t.SawVent && v.ventWordRe.MatchString(text) {
		add("VENT WITNESS", 18, "referenced witnessed vent")
	}

	if m := v.alibiRe.FindStringSubmatch(text); m != nil {
		player, room := strings.TrimSpace(m[1]), game.RoomID(m[2])
		if t.RoomsVisited[room] {
			for seen := range t.SeenPerRoom[room] {
				if strings.Contains(seen, player) || strings.Contains(player, seen) {
					add("HARD ALIBI", 12, fmt.Sprintf("verified: with %q in %q", player, room))
					break
				}
			}
		}
	}

	// A path challenge that names both rooms is checked against the
	// map; questioning travel between genuinely connected rooms earns
	// nothing.
	if m := v.fromToRe.FindStringSubmatch(text); m != nil {
		a, b := game.RoomID(m[1]), game.RoomID(m[2])
		if a != b && !v.shipMap.Adjacent(a, b) {
			add("PATH CONTRADICTION", 10, fmt.Sprintf("questioned travel between unconnected %q and %q", a, b))
		}
	} else if containsAny(text,
		"how did you get from", "rooms aren't connected", "rooms aren't adjacent",
		"not adjacent", "that's impossible", "couldn't get from",
		"did you vent", "those rooms") {
		add("PATH CONTRADICTION", 10, "questioned impossible travel")
	}

	// ── Soft evidence ──

	if containsAny(text,
		"task bar didn't", "task bar did not", "faking task", "fake task",
		"bar didn't go up", "bar didn't move", "bar didn't increase") {
		add("TASK LOGIC", 8, "referenced task bar evidence")
	}

	if !has("PATH CONTRADICTION") && containsAny(text,
		"couldn't get from", "can't get from", "too far", "rooms apart", "not enough time") {
		add("SPATIAL LOGIC", 8, "referenced spatial impossibility")
	}

	if containsAny(text,
		"watch me do", "visual task", "medbay scan", "asteroids",
		"watch me complete", "i can prove") {
		add("DIRECT DEFENSE", 10, "offered visual proof")
	}

	if !t.SawKill && !t.SawVent && v.sightingRe.MatchString(text) {
		add("SIGHTING", 5, "reported seeing a player")
	}

	// ── Filler, only when nothing of substance matched ──

	substance := false
	for _, r := range reasons {
		if r.Points > 0 {
			substance = true
			break
		}
	}
	if !substance {
		switch {
		case strings.Contains(text, "skip"):
			add("SKIP VOTE", 1, "suggested skipping")
		case strings.Contains(text, "i agree") || strings.Contains(text, "i think so too"):
			add("AGREEMENT", 1, "agreed with another player")
		case containsAny(text,
			"didn't see", "don't know", "no information", "no evidence",
			"nothing suspicious", "i have no"):
			add("UNCERTAINTY", 2, "expressed lack of information")
		default:
			add("GENERAL", 2, "unclassified speech")
		}
	}

	return score, reasons
}

func containsAny(text string, kws ...string) bool {
	for _, kw := range kws {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// roomAlternation lists room names longest-first so multi-word rooms
// match before their substrings.
func roomAlternation(shipMap *game.ShipMap) string {
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
