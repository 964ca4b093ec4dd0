package store

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/pavelanni/qbank/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestQuestion(t *testing.T, s *Store, text, topic string, level model.CognitiveLevel) int64 {
	t.Helper()
	id, err := s.InsertQuestion(model.Question{
		Text:  text,
		Type:  model.TypeShortAnswer,
		Topic: topic,
		Classification: model.Classification{
			CognitiveLevel:     level,
			KnowledgeDimension: model.DimensionConceptual,
			Difficulty:         model.DifficultyAverage,
			Confidence:         0.8,
			QualityScore:       0.9,
			ReadabilityScore:   6.5,
			Fingerprint:        []float64{1, 0, 0},
		},
	})
	if err != nil {
		t.Fatalf("insertTestQuestion: %v", err)
	}
	return id
}

func TestQuestionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	// Empty DB should return zero count and empty list.
	count, err := s.QuestionCount()
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 questions, got %d", count)
	}

	id := insertTestQuestion(t, s, "Define the term stack.", "data structures", model.LevelRemembering)

	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Text != "Define the term stack." {
		t.Errorf("unexpected text %q", q.Text)
	}
	if q.Classification.CognitiveLevel != model.LevelRemembering {
		t.Errorf("expected remembering, got %q", q.Classification.CognitiveLevel)
	}
	if q.Classification.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %f", q.Classification.Confidence)
	}
	if !reflect.DeepEqual(q.Classification.Fingerprint, []float64{1, 0, 0}) {
		t.Errorf("fingerprint round-trip failed: %v", q.Classification.Fingerprint)
	}

	// Not found.
	_, err = s.GetQuestion(9999)
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestListQuestionsFiltered(t *testing.T) {
	s := newTestStore(t)
	insertTestQuestion(t, s, "Q1", "algebra", model.LevelRemembering)
	insertTestQuestion(t, s, "Q2", "algebra", model.LevelCreating)
	insertTestQuestion(t, s, "Q3", "geometry", model.LevelRemembering)

	tests := []struct {
		name      string
		topic     string
		level     model.CognitiveLevel
		wantCount int
	}{
		{"no filter", "", "", 3},
		{"by topic", "algebra", "", 2},
		{"by level", "", model.LevelRemembering, 2},
		{"by both", "algebra", model.LevelRemembering, 1},
		{"no match", "geometry", model.LevelCreating, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := s.ListQuestionsFiltered(tt.topic, tt.level)
			if err != nil {
				t.Fatalf("ListQuestionsFiltered: %v", err)
			}
			if len(qs) != tt.wantCount {
				t.Errorf("expected %d questions, got %d", tt.wantCount, len(qs))
			}
		})
	}
}

func TestSoftDeleteExcludesFromLists(t *testing.T) {
	s := newTestStore(t)
	id := insertTestQuestion(t, s, "Q1", "algebra", model.LevelRemembering)
	insertTestQuestion(t, s, "Q2", "algebra", model.LevelRemembering)

	if err := s.SoftDeleteQuestion(id); err != nil {
		t.Fatalf("SoftDeleteQuestion: %v", err)
	}

	qs, err := s.ListQuestions()
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(qs) != 1 {
		t.Fatalf("expected 1 question after soft delete, got %d", len(qs))
	}

	count, _ := s.QuestionCount()
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	// The row itself survives.
	q, err := s.GetQuestion(id)
	if err != nil {
		t.Fatalf("GetQuestion after delete: %v", err)
	}
	if !q.Deleted {
		t.Error("expected deleted flag set")
	}
}

func TestUpdateClassification(t *testing.T) {
	s := newTestStore(t)
	id := insertTestQuestion(t, s, "Q1", "algebra", model.LevelRemembering)

	corrected := model.Classification{
		CognitiveLevel:     model.LevelAnalyzing,
		KnowledgeDimension: model.DimensionProcedural,
		Difficulty:         model.DifficultyDifficult,
		Confidence:         1.0,
		QualityScore:       0.9,
		ReadabilityScore:   7.0,
		Fingerprint:        []float64{0, 1},
		NeedsReview:        false,
	}
	if err := s.UpdateClassification(id, corrected); err != nil {
		t.Fatalf("UpdateClassification: %v", err)
	}

	q, _ := s.GetQuestion(id)
	if q.Classification.CognitiveLevel != model.LevelAnalyzing {
		t.Errorf("expected analyzing, got %q", q.Classification.CognitiveLevel)
	}
	if q.Classification.NeedsReview {
		t.Error("review flag should be cleared")
	}
}

func TestReviewQueueOrderedByConfidence(t *testing.T) {
	s := newTestStore(t)

	ids := make([]int64, 0, 3)
	for _, conf := range []float64{0.6, 0.4, 0.9} {
		id, err := s.InsertQuestion(model.Question{
			Text:  "Q",
			Type:  model.TypeMCQ,
			Topic: "t",
			Classification: model.Classification{
				CognitiveLevel:     model.LevelUnderstanding,
				KnowledgeDimension: model.DimensionConceptual,
				Difficulty:         model.DifficultyEasy,
				Confidence:         conf,
				Fingerprint:        []float64{},
				NeedsReview:        conf < 0.7,
			},
		})
		if err != nil {
			t.Fatalf("InsertQuestion: %v", err)
		}
		ids = append(ids, id)
	}

	queue, err := s.ListReviewQueue()
	if err != nil {
		t.Fatalf("ListReviewQueue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 queued questions, got %d", len(queue))
	}
	// Least confident first.
	if queue[0].ID != ids[1] || queue[1].ID != ids[0] {
		t.Errorf("unexpected queue order: %d, %d", queue[0].ID, queue[1].ID)
	}
}

func TestApprovalFlag(t *testing.T) {
	s := newTestStore(t)
	id := insertTestQuestion(t, s, "Q1", "algebra", model.LevelRemembering)

	if err := s.SetApproved(id, true); err != nil {
		t.Fatalf("SetApproved: %v", err)
	}
	q, _ := s.GetQuestion(id)
	if !q.Approved {
		t.Error("expected approved flag set")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	s := newTestStore(t)

	m := model.RequirementMatrix{
		Name: "Midterm TOS",
		Topics: []model.TopicRequirement{
			{Topic: "Algebra", Cells: map[model.CognitiveLevel]int{
				model.LevelRemembering: 5,
				model.LevelApplying:    3,
			}},
			{Topic: "Geometry", Cells: map[model.CognitiveLevel]int{
				model.LevelCreating: 2,
			}},
		},
	}
	id, err := s.SaveMatrix(m)
	if err != nil {
		t.Fatalf("SaveMatrix: %v", err)
	}

	got, err := s.GetMatrix(id)
	if err != nil {
		t.Fatalf("GetMatrix: %v", err)
	}
	if got.Name != "Midterm TOS" {
		t.Errorf("unexpected name %q", got.Name)
	}
	if len(got.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(got.Topics))
	}
	// Authoring order preserved.
	if got.Topics[0].Topic != "Algebra" || got.Topics[1].Topic != "Geometry" {
		t.Errorf("topic order not preserved: %q, %q", got.Topics[0].Topic, got.Topics[1].Topic)
	}
	if got.Topics[0].Cells[model.LevelRemembering] != 5 {
		t.Errorf("expected 5 remembering items, got %d", got.Topics[0].Cells[model.LevelRemembering])
	}
	if got.Topics[1].Cells[model.LevelCreating] != 2 {
		t.Errorf("expected 2 creating items, got %d", got.Topics[1].Cells[model.LevelCreating])
	}
}

func TestGetMatrixByName(t *testing.T) {
	s := newTestStore(t)

	// Missing matrix returns nil without error.
	m, err := s.GetMatrixByName("absent")
	if err != nil {
		t.Fatalf("GetMatrixByName: %v", err)
	}
	if m != nil {
		t.Error("expected nil for absent matrix")
	}

	if _, err := s.SaveMatrix(model.RequirementMatrix{Name: "Final", Topics: []model.TopicRequirement{}}); err != nil {
		t.Fatalf("SaveMatrix: %v", err)
	}
	m, err = s.GetMatrixByName("Final")
	if err != nil {
		t.Fatalf("GetMatrixByName: %v", err)
	}
	if m == nil || m.Name != "Final" {
		t.Errorf("expected matrix 'Final', got %+v", m)
	}
	if m.Topics == nil {
		t.Error("stored matrix must round-trip with non-nil topics")
	}
}

func TestDeleteMatrix(t *testing.T) {
	s := newTestStore(t)

	id, _ := s.SaveMatrix(model.RequirementMatrix{
		Name: "Old",
		Topics: []model.TopicRequirement{
			{Topic: "t", Cells: map[model.CognitiveLevel]int{model.LevelRemembering: 1}},
		},
	})

	if err := s.DeleteMatrix(id); err != nil {
		t.Fatalf("DeleteMatrix: %v", err)
	}
	if _, err := s.GetMatrix(id); err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows after delete, got %v", err)
	}
	matrices, _ := s.ListMatrices()
	if len(matrices) != 0 {
		t.Errorf("expected no matrices, got %d", len(matrices))
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	// Missing key returns empty string.
	hash, err := s.GetImportedFileHash("/some/path.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	// Update existing.
	if err := s.SetImportedFileHash("/some/path.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestListDistinctTopics(t *testing.T) {
	s := newTestStore(t)

	topics, err := s.ListDistinctTopics()
	if err != nil {
		t.Fatalf("ListDistinctTopics: %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("expected 0 topics, got %d", len(topics))
	}

	insertTestQuestion(t, s, "Q1", "basics", model.LevelRemembering)
	insertTestQuestion(t, s, "Q2", "basics", model.LevelRemembering)
	insertTestQuestion(t, s, "Q3", "advanced", model.LevelCreating)

	topics, _ = s.ListDistinctTopics()
	if len(topics) != 2 {
		t.Fatalf("expected 2 distinct topics, got %d: %v", len(topics), topics)
	}
	// Ordered alphabetically.
	if topics[0] != "advanced" || topics[1] != "basics" {
		t.Errorf("expected [advanced basics], got %v", topics)
	}
}

func TestExportBank(t *testing.T) {
	s := newTestStore(t)
	insertTestQuestion(t, s, "Q1", "algebra", model.LevelRemembering)
	deleted := insertTestQuestion(t, s, "Q2", "algebra", model.LevelRemembering)
	_ = s.SoftDeleteQuestion(deleted)

	export, err := s.ExportBank()
	if err != nil {
		t.Fatalf("ExportBank: %v", err)
	}
	if export.Count != 1 || len(export.Questions) != 1 {
		t.Fatalf("expected 1 exported question, got count=%d len=%d", export.Count, len(export.Questions))
	}
	if export.Questions[0].Text != "Q1" {
		t.Errorf("unexpected exported question %q", export.Questions[0].Text)
	}
}

func TestUsersAndAuthSessions(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id, err := s.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "hash",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleAdmin {
		t.Fatalf("unexpected user %+v", u)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected session %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, _ = s.GetAuthSession(token)
	if sess != nil {
		t.Error("expected nil session after delete")
	}
}

func TestListUsersAndToggleActive(t *testing.T) {
	s := newTestStore(t)

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected 0 users, got %d", len(users))
	}

	adminID, _ := s.CreateUser(model.User{Username: "admin", Role: model.UserRoleAdmin, Active: true})
	reviewerID, _ := s.CreateUser(model.User{Username: "rev", Role: model.UserRoleReviewer, Active: true})

	users, _ = s.ListUsers()
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != adminID || users[1].ID != reviewerID {
		t.Errorf("users not ordered by ID: %d, %d", users[0].ID, users[1].ID)
	}

	if err := s.ToggleUserActive(reviewerID); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ := s.GetUserByID(reviewerID)
	if u.Active {
		t.Error("expected user inactive after toggle")
	}

	if err := s.ToggleUserActive(reviewerID); err != nil {
		t.Fatalf("ToggleUserActive back: %v", err)
	}
	u, _ = s.GetUserByID(reviewerID)
	if !u.Active {
		t.Error("expected user active after second toggle")
	}
}
