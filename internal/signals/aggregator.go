// Package signals condenses an entity's activity history into a standing
// that landlords and caretakers can act on.
package signals

import (
	"sort"
	"time"

	"github.com/matthewbaird/rentals/internal/types"
)

// CategorySummary counts one category's activity in the window.
type CategorySummary struct {
	Category         string         `json:"category"`
	Count            int            `json:"count"`
	ByPolarity       map[string]int `json:"by_polarity"`
	DominantPolarity string         `json:"dominant_polarity"`
	Trend            string         `json:"trend"` // "improving", "stable" or "declining"
}

// Escalation is a rule that fired.
type Escalation struct {
	Rule             EscalationRule `json:"rule"`
	TriggeringCount  int            `json:"triggering_count"`
	EarliestOccurred time.Time      `json:"earliest_occurred"`
	LatestOccurred   time.Time      `json:"latest_occurred"`
}

// Summary is the standing of one entity over a window.
type Summary struct {
	EntityType  string                     `json:"entity_type"`
	EntityID    string                     `json:"entity_id"`
	Since       time.Time                  `json:"since"`
	Until       time.Time                  `json:"until"`
	Categories  map[string]CategorySummary `json:"categories"`
	Standing    string                     `json:"standing"` // "good", "watch" or "at_risk"
	Reason      string                     `json:"reason"`
	Escalations []Escalation               `json:"escalations"`
}

// Summarize produces a Summary from activity entries within [since, until].
// Rule windows are measured back from until.
func Summarize(entries []types.ActivityEntry, entityType, entityID string, since, until time.Time) Summary {
	var inWindow []types.ActivityEntry
	for _, e := range entries {
		if e.OccurredAt.Before(since) || e.OccurredAt.After(until) {
			continue
		}
		inWindow = append(inWindow, e)
	}

	categories := make(map[string]CategorySummary)
	for _, e := range inWindow {
		cs, ok := categories[e.Category]
		if !ok {
			cs = CategorySummary{Category: e.Category, ByPolarity: make(map[string]int)}
		}
		cs.Count++
		cs.ByPolarity[e.Polarity]++
		categories[e.Category] = cs
	}
	for cat, cs := range categories {
		cs.DominantPolarity = dominantPolarity(cs.ByPolarity)
		cs.Trend = computeTrend(inWindow, cat, since, until)
		categories[cat] = cs
	}

	escalations := EvaluateEscalations(inWindow, until)
	standing, reason := computeStanding(categories, escalations)

	return Summary{
		EntityType:  entityType,
		EntityID:    entityID,
		Since:       since,
		Until:       until,
		Categories:  categories,
		Standing:    standing,
		Reason:      reason,
		Escalations: escalations,
	}
}

// EvaluateEscalations checks every rule in Rules against entries.
func EvaluateEscalations(entries []types.ActivityEntry, now time.Time) []Escalation {
	out := []Escalation{}
	for _, rule := range Rules {
		var (
			es Escalation
			ok bool
		)
		if len(rule.RequiredCategories) > 0 {
			es, ok = evaluateCrossCategoryRule(rule, entries, now)
		} else {
			es, ok = evaluateCountRule(rule, entries, now)
		}
		if ok {
			out = append(out, es)
		}
	}
	return out
}

func evaluateCountRule(rule EscalationRule, entries []types.ActivityEntry, now time.Time) (Escalation, bool) {
	windowStart := now.AddDate(0, 0, -rule.WithinDays)

	var matching []types.ActivityEntry
	for _, e := range entries {
		if e.OccurredAt.Before(windowStart) {
			continue
		}
		if rule.Category != "" && e.Category != rule.Category {
			continue
		}
		if rule.Polarity != "" && e.Polarity != rule.Polarity {
			continue
		}
		matching = append(matching, e)
	}
	if len(matching) == 0 || len(matching) < rule.Count {
		return Escalation{}, false
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].OccurredAt.Before(matching[j].OccurredAt)
	})
	return Escalation{
		Rule:             rule,
		TriggeringCount:  len(matching),
		EarliestOccurred: matching[0].OccurredAt,
		LatestOccurred:   matching[len(matching)-1].OccurredAt,
	}, true
}

func evaluateCrossCategoryRule(rule EscalationRule, entries []types.ActivityEntry, now time.Time) (Escalation, bool) {
	windowStart := now.AddDate(0, 0, -rule.WithinDays)

	counts := make(map[string]int)
	var earliest, latest time.Time
	for _, e := range entries {
		if e.OccurredAt.Before(windowStart) {
			continue
		}
		for _, req := range rule.RequiredCategories {
			if e.Category != req.Category || (req.Polarity != "" && e.Polarity != req.Polarity) {
				continue
			}
			counts[req.Category]++
			if earliest.IsZero() || e.OccurredAt.Before(earliest) {
				earliest = e.OccurredAt
			}
			if e.OccurredAt.After(latest) {
				latest = e.OccurredAt
			}
		}
	}

	total := 0
	for _, req := range rule.RequiredCategories {
		if counts[req.Category] < req.MinCount {
			return Escalation{}, false
		}
		total += counts[req.Category]
	}
	return Escalation{
		Rule:             rule,
		TriggeringCount:  total,
		EarliestOccurred: earliest,
		LatestOccurred:   latest,
	}, true
}

// dominantPolarity returns the polarity with the highest count. Ties go to
// the alphabetically first polarity so the result is stable.
func dominantPolarity(byPolarity map[string]int) string {
	best, bestCount := "", 0
	for p, c := range byPolarity {
		if c > bestCount || (c == bestCount && p < best) {
			best, bestCount = p, c
		}
	}
	return best
}

// computeTrend compares negative activity in the first and second half of
// the window. More negative events later means declining.
func computeTrend(entries []types.ActivityEntry, category string, since, until time.Time) string {
	mid := since.Add(until.Sub(since) / 2)
	var firstHalf, secondHalf int
	for _, e := range entries {
		if e.Category != category || e.Polarity != "negative" {
			continue
		}
		if e.OccurredAt.Before(mid) {
			firstHalf++
		} else {
			secondHalf++
		}
	}
	switch {
	case secondHalf > firstHalf:
		return "declining"
	case firstHalf > secondHalf:
		return "improving"
	}
	return "stable"
}

func computeStanding(categories map[string]CategorySummary, escalations []Escalation) (string, string) {
	for _, e := range escalations {
		if e.Rule.Severity == "at_risk" {
			return "at_risk", e.Rule.Description
		}
	}
	if len(escalations) > 0 {
		return "watch", escalations[0].Rule.Description
	}

	var negative, positive int
	for _, cs := range categories {
		negative += cs.ByPolarity["negative"]
		positive += cs.ByPolarity["positive"]
	}
	if negative > positive {
		return "watch", "More failed payments and overdue bills than completed payments"
	}
	return "good", "Payments are completing and bills are current"
}
