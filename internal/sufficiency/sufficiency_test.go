package sufficiency

import (
	"errors"
	"testing"

	"github.com/pavelanni/qbank/internal/model"
)

func question(topic string, level model.CognitiveLevel) model.Question {
	return model.Question{
		Text:  "test question",
		Type:  model.TypeShortAnswer,
		Topic: topic,
		Classification: model.Classification{
			CognitiveLevel: level,
		},
	}
}

func matrix(name string, topics ...model.TopicRequirement) model.RequirementMatrix {
	if topics == nil {
		topics = []model.TopicRequirement{}
	}
	return model.RequirementMatrix{Name: name, Topics: topics}
}

func TestAnalyzeInvalidMatrix(t *testing.T) {
	_, err := Analyze(model.RequirementMatrix{Name: "broken"}, nil)
	if !errors.Is(err, ErrInvalidMatrix) {
		t.Errorf("expected ErrInvalidMatrix, got %v", err)
	}
}

func TestAnalyzeEmptyMatrix(t *testing.T) {
	a, err := Analyze(matrix("empty"), []model.Question{question("algebra", model.LevelRemembering)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.OverallStatus != model.StatusPass {
		t.Errorf("expected pass, got %q", a.OverallStatus)
	}
	if a.OverallScore != 100 {
		t.Errorf("expected score 100, got %f", a.OverallScore)
	}
	if len(a.Results) != 0 {
		t.Errorf("expected no results, got %d", len(a.Results))
	}
}

// 3 available against 5 required is 60%, below the 70% warning cutoff, so
// the cell fails. This pins the exact boundary arithmetic.
func TestAnalyzeWarningBoundary(t *testing.T) {
	m := matrix("tos", model.TopicRequirement{
		Topic: "Algebra",
		Cells: map[model.CognitiveLevel]int{model.LevelRemembering: 5},
	})
	inv := []model.Question{
		question("algebra basics", model.LevelRemembering),
		question("algebra basics", model.LevelRemembering),
		question("algebra basics", model.LevelRemembering),
	}

	a, err := Analyze(m, inv)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(a.Results))
	}
	r := a.Results[0]
	if r.Available != 3 || r.Gap != 2 {
		t.Errorf("available=%d gap=%d, want 3 and 2", r.Available, r.Gap)
	}
	if r.Status != model.StatusFail {
		t.Errorf("3/5 = 60%% must fail, got %q", r.Status)
	}

	// 4/5 = 80% is a warning, 5/5 passes.
	inv = append(inv, question("algebra basics", model.LevelRemembering))
	a, _ = Analyze(m, inv)
	if a.Results[0].Status != model.StatusWarning {
		t.Errorf("4/5 = 80%% must warn, got %q", a.Results[0].Status)
	}
	inv = append(inv, question("algebra basics", model.LevelRemembering))
	a, _ = Analyze(m, inv)
	if a.Results[0].Status != model.StatusPass {
		t.Errorf("5/5 must pass, got %q", a.Results[0].Status)
	}
}

func TestTopicsMatchBothDirections(t *testing.T) {
	m := matrix("tos",
		model.TopicRequirement{
			Topic: "Requirements Engineering",
			Cells: map[model.CognitiveLevel]int{model.LevelUnderstanding: 1},
		},
		model.TopicRequirement{
			Topic: "math",
			Cells: map[model.CognitiveLevel]int{model.LevelApplying: 1},
		},
	)
	inv := []model.Question{
		// Inventory topic is a fragment of the requirement topic.
		question("req_engineering", model.LevelUnderstanding),
		// Requirement topic is a fragment of the inventory topic.
		question("Mathematics", model.LevelApplying),
	}

	a, err := Analyze(m, inv)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// "req engineering" vs "requirements engineering": neither contains the
	// other, so only the separator-normalized level match is not enough.
	if a.Results[0].Available != 0 {
		t.Errorf("partial-overlap topics should not match, got available=%d", a.Results[0].Available)
	}
	if a.Results[1].Available != 1 {
		t.Errorf("'math' should match 'Mathematics', got available=%d", a.Results[1].Available)
	}
}

func TestTopicNormalizationBridgesNamingDrift(t *testing.T) {
	m := matrix("tos", model.TopicRequirement{
		Topic: "software-testing",
		Cells: map[model.CognitiveLevel]int{model.LevelApplying: 2},
	})
	inv := []model.Question{
		question("Software_Testing", model.LevelApplying),
		question("SOFTWARE TESTING basics", model.LevelApplying),
		question("Software Testing", model.LevelRemembering), // wrong level
	}

	a, _ := Analyze(m, inv)
	if a.Results[0].Available != 2 {
		t.Errorf("expected 2 available, got %d", a.Results[0].Available)
	}
	if a.Results[0].Status != model.StatusPass {
		t.Errorf("expected pass, got %q", a.Results[0].Status)
	}
}

func TestDeletedItemsExcluded(t *testing.T) {
	m := matrix("tos", model.TopicRequirement{
		Topic: "algebra",
		Cells: map[model.CognitiveLevel]int{model.LevelRemembering: 1},
	})
	deleted := question("algebra", model.LevelRemembering)
	deleted.Deleted = true

	a, _ := Analyze(m, []model.Question{deleted})
	if a.Results[0].Available != 0 {
		t.Errorf("deleted item counted, available=%d", a.Results[0].Available)
	}
}

func TestZeroRequiredCellsSkipped(t *testing.T) {
	m := matrix("tos", model.TopicRequirement{
		Topic: "algebra",
		Cells: map[model.CognitiveLevel]int{
			model.LevelRemembering: 0,
			model.LevelCreating:    2,
		},
	})

	a, _ := Analyze(m, nil)
	if len(a.Results) != 1 {
		t.Fatalf("expected 1 result (zero-required cell skipped), got %d", len(a.Results))
	}
	if a.Results[0].Level != model.LevelCreating {
		t.Errorf("unexpected cell level %q", a.Results[0].Level)
	}
}

func TestTotalsAreConsistent(t *testing.T) {
	m := matrix("tos",
		model.TopicRequirement{
			Topic: "networks",
			Cells: map[model.CognitiveLevel]int{model.LevelRemembering: 3, model.LevelAnalyzing: 2},
		},
		model.TopicRequirement{
			Topic: "databases",
			Cells: map[model.CognitiveLevel]int{model.LevelApplying: 4},
		},
	)
	inv := []model.Question{
		question("networks", model.LevelRemembering),
		question("networks", model.LevelAnalyzing),
		question("databases", model.LevelApplying),
		question("databases", model.LevelApplying),
	}

	a, _ := Analyze(m, inv)

	var sumReq, sumAvail, sumGap int
	for _, r := range a.Results {
		sumReq += r.Required
		sumAvail += r.Available
		sumGap += r.Gap
	}
	if sumReq != a.TotalRequired || sumAvail != a.TotalAvailable || sumGap != a.TotalGap {
		t.Errorf("totals inconsistent: rows (%d, %d, %d) vs totals (%d, %d, %d)",
			sumReq, sumAvail, sumGap, a.TotalRequired, a.TotalAvailable, a.TotalGap)
	}
	wantScore := 100 * float64(a.TotalAvailable) / float64(a.TotalRequired)
	if a.OverallScore != wantScore {
		t.Errorf("overall score = %f, want %f", a.OverallScore, wantScore)
	}
}

func TestSurplusDoesNotOffsetGaps(t *testing.T) {
	m := matrix("tos",
		model.TopicRequirement{
			Topic: "sorting",
			Cells: map[model.CognitiveLevel]int{model.LevelRemembering: 1},
		},
		model.TopicRequirement{
			Topic: "graphs",
			Cells: map[model.CognitiveLevel]int{model.LevelCreating: 3},
		},
	)
	inv := []model.Question{
		question("sorting", model.LevelRemembering),
		question("sorting", model.LevelRemembering),
		question("sorting", model.LevelRemembering),
	}

	a, _ := Analyze(m, inv)
	// Gap stays clamped at zero per cell; the graphs cell still reports 3.
	if a.Results[0].Gap != 0 {
		t.Errorf("surplus cell gap = %d, want 0", a.Results[0].Gap)
	}
	if a.Results[1].Gap != 3 {
		t.Errorf("deficit cell gap = %d, want 3", a.Results[1].Gap)
	}
	if a.TotalGap != 3 {
		t.Errorf("total gap = %d, want 3", a.TotalGap)
	}
}

func TestRecommendationsWorstGapsFirst(t *testing.T) {
	cells := func(level model.CognitiveLevel, n int) map[model.CognitiveLevel]int {
		return map[model.CognitiveLevel]int{level: n}
	}
	m := matrix("tos",
		model.TopicRequirement{Topic: "t1", Cells: cells(model.LevelRemembering, 2)},  // fail, gap 2
		model.TopicRequirement{Topic: "t2", Cells: cells(model.LevelRemembering, 10)}, // fail, gap 10
		model.TopicRequirement{Topic: "t3", Cells: cells(model.LevelRemembering, 5)},  // fail, gap 5
		model.TopicRequirement{Topic: "t4", Cells: cells(model.LevelRemembering, 3)},  // fail, gap 3
		model.TopicRequirement{Topic: "t5", Cells: cells(model.LevelRemembering, 4)},  // warning, gap 1
	)
	inv := []model.Question{
		question("t5", model.LevelRemembering),
		question("t5", model.LevelRemembering),
		question("t5", model.LevelRemembering),
	}

	a, _ := Analyze(m, inv)

	// Top 3 failing by descending gap, then warnings.
	wantTopics := []string{"t2", "t3", "t4", "t5"}
	if len(a.Recommendations) != len(wantTopics) {
		t.Fatalf("expected %d recommendations, got %d: %+v", len(wantTopics), len(a.Recommendations), a.Recommendations)
	}
	for i, want := range wantTopics {
		if a.Recommendations[i].Topic != want {
			t.Errorf("recommendation[%d].Topic = %q, want %q", i, a.Recommendations[i].Topic, want)
		}
	}
	if a.Recommendations[0].Gap != 10 {
		t.Errorf("worst gap = %d, want 10", a.Recommendations[0].Gap)
	}
}

func TestNoRecommendationsWhenCovered(t *testing.T) {
	m := matrix("tos", model.TopicRequirement{
		Topic: "algebra",
		Cells: map[model.CognitiveLevel]int{model.LevelRemembering: 1},
	})
	a, _ := Analyze(m, []model.Question{question("algebra", model.LevelRemembering)})
	if len(a.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %+v", a.Recommendations)
	}
}
