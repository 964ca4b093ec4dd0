// Package sufficiency reconciles a Table of Specification against a
// classified question inventory: for every (topic, cognitive level) cell it
// counts matching items, computes the gap, and rolls the cells up into an
// overall coverage score with generation recommendations.
//
// The analyzer never re-classifies and never mutates the inventory. It is
// computed fresh on every call, so a stale inventory is always reflected.
package sufficiency

import (
	"errors"
	"sort"
	"strings"

	"github.com/pavelanni/qbank/internal/model"
	"github.com/pavelanni/qbank/internal/textutil"
)

// ErrInvalidMatrix reports a structurally invalid requirement matrix. This
// is the only loud failure in the core: a malformed matrix makes every
// computed total meaningless, unlike a noisy inventory which just degrades
// the counts.
var ErrInvalidMatrix = errors.New("invalid requirement matrix")

// warningRatio is the coverage fraction below which a cell fails outright.
const warningRatio = 0.7

// Caps on the itemized recommendation list.
const (
	maxFailRecommendations    = 3
	maxWarningRecommendations = 2
)

// Analyze computes coverage of the requirement matrix by the inventory.
// Deleted inventory items are filtered out defensively, so the function is
// total over any inventory the caller hands it.
func Analyze(matrix model.RequirementMatrix, inventory []model.Question) (*model.SufficiencyAnalysis, error) {
	if matrix.Topics == nil {
		return nil, ErrInvalidMatrix
	}

	type invItem struct {
		topic string
		level model.CognitiveLevel
	}
	var items []invItem
	for _, q := range inventory {
		if q.Deleted {
			continue
		}
		items = append(items, invItem{
			topic: textutil.NormalizeTopic(q.Topic),
			level: q.Classification.CognitiveLevel,
		})
	}

	analysis := &model.SufficiencyAnalysis{Results: []model.CellResult{}}

	for _, tr := range matrix.Topics {
		cellTopic := textutil.NormalizeTopic(tr.Topic)
		for _, level := range model.CognitiveLevels {
			required := tr.Cells[level]
			if required <= 0 {
				continue
			}

			available := 0
			for _, it := range items {
				if it.level == level && topicsMatch(cellTopic, it.topic) {
					available++
				}
			}

			gap := required - available
			if gap < 0 {
				gap = 0
			}

			analysis.Results = append(analysis.Results, model.CellResult{
				Topic:     tr.Topic,
				Level:     level,
				Required:  required,
				Available: available,
				Gap:       gap,
				Status:    cellStatus(required, available),
			})
			analysis.TotalRequired += required
			analysis.TotalAvailable += available
			analysis.TotalGap += gap
		}
	}

	if analysis.TotalRequired > 0 {
		analysis.OverallScore = 100 * float64(analysis.TotalAvailable) / float64(analysis.TotalRequired)
	} else {
		// Nothing required means trivially satisfied.
		analysis.OverallScore = 100
	}
	analysis.OverallStatus = scoreStatus(analysis.OverallScore)
	analysis.Recommendations = recommend(analysis.Results)

	return analysis, nil
}

// topicsMatch is deliberately permissive: either normalized name containing
// the other counts as a match, which absorbs naming drift like "req eng" vs
// "requirements engineering". Short names over-match ("math" matches
// "mathematics"), and two curriculum topics sharing a substring will
// double-count; that trade-off is intentional and documented, not a bug to
// fix here.
func topicsMatch(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func cellStatus(required, available int) model.CellStatus {
	switch {
	case available >= required:
		return model.StatusPass
	case float64(available) >= warningRatio*float64(required):
		return model.StatusWarning
	default:
		return model.StatusFail
	}
}

func scoreStatus(score float64) model.CellStatus {
	switch {
	case score >= 100:
		return model.StatusPass
	case score >= 100*warningRatio:
		return model.StatusWarning
	default:
		return model.StatusFail
	}
}

// recommend itemizes the worst gaps: the top failing cells first, then the
// top warning cells, each ordered by descending gap with matrix order as
// the tie-break.
func recommend(results []model.CellResult) []model.Recommendation {
	var fails, warns []model.CellResult
	for _, r := range results {
		if r.Gap <= 0 {
			continue
		}
		switch r.Status {
		case model.StatusFail:
			fails = append(fails, r)
		case model.StatusWarning:
			warns = append(warns, r)
		}
	}

	byGapDesc := func(cells []model.CellResult) {
		sort.SliceStable(cells, func(i, j int) bool {
			return cells[i].Gap > cells[j].Gap
		})
	}
	byGapDesc(fails)
	byGapDesc(warns)

	if len(fails) > maxFailRecommendations {
		fails = fails[:maxFailRecommendations]
	}
	if len(warns) > maxWarningRecommendations {
		warns = warns[:maxWarningRecommendations]
	}

	var recs []model.Recommendation
	for _, r := range append(fails, warns...) {
		recs = append(recs, model.Recommendation{Topic: r.Topic, Level: r.Level, Gap: r.Gap})
	}
	return recs
}
