package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleAuthor is a question author role.
	UserRoleAuthor UserRole = "author"
	// UserRoleReviewer is a classification reviewer role.
	UserRoleReviewer UserRole = "reviewer"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionType represents the declared format of a question.
type QuestionType string

const (
	TypeMCQ         QuestionType = "mcq"
	TypeTrueFalse   QuestionType = "true_false"
	TypeEssay       QuestionType = "essay"
	TypeShortAnswer QuestionType = "short_answer"
)

// CognitiveLevel is one of the six Bloom taxonomy levels.
type CognitiveLevel string

const (
	LevelRemembering   CognitiveLevel = "remembering"
	LevelUnderstanding CognitiveLevel = "understanding"
	LevelApplying      CognitiveLevel = "applying"
	LevelAnalyzing     CognitiveLevel = "analyzing"
	LevelEvaluating    CognitiveLevel = "evaluating"
	LevelCreating      CognitiveLevel = "creating"
)

// CognitiveLevels lists all Bloom levels in taxonomy order. Code that walks
// a per-level matrix must iterate this slice, never a map, so results come
// out in a stable order.
var CognitiveLevels = []CognitiveLevel{
	LevelRemembering,
	LevelUnderstanding,
	LevelApplying,
	LevelAnalyzing,
	LevelEvaluating,
	LevelCreating,
}

// KnowledgeDimension is one of the four Anderson-Krathwohl knowledge types.
type KnowledgeDimension string

const (
	DimensionFactual       KnowledgeDimension = "factual"
	DimensionConceptual    KnowledgeDimension = "conceptual"
	DimensionProcedural    KnowledgeDimension = "procedural"
	DimensionMetacognitive KnowledgeDimension = "metacognitive"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyAverage   Difficulty = "average"
	DifficultyDifficult Difficulty = "difficult"
)

// FingerprintSize is the fixed length of the hashed term-frequency vector.
const FingerprintSize = 50

// Classification is the pedagogical label produced for a question.
// It is written once by the classifier; only a human review may change it.
type Classification struct {
	CognitiveLevel     CognitiveLevel     `json:"cognitive_level"`
	KnowledgeDimension KnowledgeDimension `json:"knowledge_dimension"`
	Difficulty         Difficulty         `json:"difficulty"`
	Confidence         float64            `json:"confidence"`
	QualityScore       float64            `json:"quality_score"`
	ReadabilityScore   float64            `json:"readability_score"`
	Fingerprint        []float64          `json:"fingerprint"`
	NeedsReview        bool               `json:"needs_review"`
}

// Question is a classified inventory item.
type Question struct {
	ID             int64          `json:"id"`
	Text           string         `json:"text"`
	Type           QuestionType   `json:"type"`
	Topic          string         `json:"topic"`
	Classification Classification `json:"classification"`
	Approved       bool           `json:"approved"`
	Deleted        bool           `json:"deleted"`
	CreatedAt      time.Time      `json:"created_at"`
}

// QuestionImport is used for loading questions from JSON.
type QuestionImport struct {
	Text  string       `json:"text"`
	Type  QuestionType `json:"type"`
	Topic string       `json:"topic"`
}

// TopicRequirement is one row of a requirement matrix: how many items each
// cognitive level needs for a single topic.
type TopicRequirement struct {
	Topic string                 `json:"topic"`
	Cells map[CognitiveLevel]int `json:"cells"`
}

// RequirementMatrix is a Table of Specification: an ordered list of topic
// requirements authored by the curriculum owner.
type RequirementMatrix struct {
	ID     int64              `json:"id,omitempty"`
	Name   string             `json:"name"`
	Topics []TopicRequirement `json:"topics"`
}

// CellStatus classifies coverage of a single (topic, level) cell.
type CellStatus string

const (
	StatusPass    CellStatus = "pass"
	StatusWarning CellStatus = "warning"
	StatusFail    CellStatus = "fail"
)

// CellResult is the computed coverage for one requirement cell.
type CellResult struct {
	Topic     string         `json:"topic"`
	Level     CognitiveLevel `json:"level"`
	Required  int            `json:"required"`
	Available int            `json:"available"`
	Gap       int            `json:"gap"`
	Status    CellStatus     `json:"status"`
}

// Recommendation asks the external generator for Gap new items of a given
// topic and level. Advisory only: nothing in this system acts on it without
// an explicit caller request.
type Recommendation struct {
	Topic string         `json:"topic"`
	Level CognitiveLevel `json:"level"`
	Gap   int            `json:"gap"`
}

// SufficiencyAnalysis is the result of reconciling a requirement matrix
// against the inventory. Computed fresh on every request, never persisted.
type SufficiencyAnalysis struct {
	Results         []CellResult     `json:"results"`
	TotalRequired   int              `json:"total_required"`
	TotalAvailable  int              `json:"total_available"`
	TotalGap        int              `json:"total_gap"`
	OverallScore    float64          `json:"overall_score"`
	OverallStatus   CellStatus       `json:"overall_status"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Lang                string  // message language (en, ru)
	SimilarityThreshold float64 // duplicate detection cutoff
	MaxGenerate         int     // cap on questions requested from the LLM per call
	SecureCookies       bool    // Set Secure flag on cookies (disable for local dev)
}
