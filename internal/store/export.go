package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/qbank/internal/model"
)

// ExportBank builds an export-ready snapshot of the classified inventory.
// Soft-deleted questions are not exported.
func (s *Store) ExportBank() (model.BankExport, error) {
	questions, err := s.ListQuestions()
	if err != nil {
		return model.BankExport{}, fmt.Errorf("list questions: %w", err)
	}

	export := model.BankExport{
		ExportedAt: time.Now(),
		Count:      len(questions),
		Questions:  []model.QuestionExport{},
	}
	for _, q := range questions {
		export.Questions = append(export.Questions, model.QuestionExport{
			ID:                 q.ID,
			Text:               q.Text,
			Type:               q.Type,
			Topic:              q.Topic,
			CognitiveLevel:     q.Classification.CognitiveLevel,
			KnowledgeDimension: q.Classification.KnowledgeDimension,
			Difficulty:         q.Classification.Difficulty,
			Confidence:         q.Classification.Confidence,
			QualityScore:       q.Classification.QualityScore,
			ReadabilityScore:   q.Classification.ReadabilityScore,
			NeedsReview:        q.Classification.NeedsReview,
			Approved:           q.Approved,
			CreatedAt:          q.CreatedAt,
		})
	}
	return export, nil
}
