package model

import "time"

// BankExport is the top-level JSON structure for inventory export.
type BankExport struct {
	ExportedAt time.Time        `json:"exported_at"`
	Count      int              `json:"count"`
	Questions  []QuestionExport `json:"questions"`
}

// QuestionExport holds one classified question for export.
type QuestionExport struct {
	ID                 int64              `json:"id"`
	Text               string             `json:"text"`
	Type               QuestionType       `json:"type"`
	Topic              string             `json:"topic"`
	CognitiveLevel     CognitiveLevel     `json:"cognitive_level"`
	KnowledgeDimension KnowledgeDimension `json:"knowledge_dimension"`
	Difficulty         Difficulty         `json:"difficulty"`
	Confidence         float64            `json:"confidence"`
	QualityScore       float64            `json:"quality_score"`
	ReadabilityScore   float64            `json:"readability_score"`
	NeedsReview        bool               `json:"needs_review"`
	Approved           bool               `json:"approved"`
	CreatedAt          time.Time          `json:"created_at"`
}
