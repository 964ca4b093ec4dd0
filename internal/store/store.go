package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/qbank/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		type TEXT NOT NULL,
		topic TEXT NOT NULL,
		cognitive_level TEXT NOT NULL,
		knowledge_dimension TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		quality_score REAL NOT NULL DEFAULT 0,
		readability_score REAL NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL DEFAULT '[]',
		needs_review INTEGER NOT NULL DEFAULT 0,
		approved INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tos_matrices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tos_cells (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		matrix_id INTEGER NOT NULL,
		topic_position INTEGER NOT NULL,
		topic TEXT NOT NULL,
		level TEXT NOT NULL,
		required INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (matrix_id) REFERENCES tos_matrices(id)
	);

	CREATE TABLE IF NOT EXISTS bank_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const questionColumns = `id, text, type, topic, cognitive_level, knowledge_dimension, difficulty,
	confidence, quality_score, readability_score, fingerprint, needs_review, approved, deleted, created_at`

// InsertQuestion stores a classified question and returns its ID.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	fp, err := json.Marshal(q.Classification.Fingerprint)
	if err != nil {
		return 0, fmt.Errorf("marshal fingerprint: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (text, type, topic, cognitive_level, knowledge_dimension, difficulty,
		 confidence, quality_score, readability_score, fingerprint, needs_review, approved, deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Text, q.Type, q.Topic,
		q.Classification.CognitiveLevel, q.Classification.KnowledgeDimension, q.Classification.Difficulty,
		q.Classification.Confidence, q.Classification.QualityScore, q.Classification.ReadabilityScore,
		string(fp), q.Classification.NeedsReview, q.Approved, q.Deleted, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	var fp string
	err := row.Scan(
		&q.ID, &q.Text, &q.Type, &q.Topic,
		&q.Classification.CognitiveLevel, &q.Classification.KnowledgeDimension, &q.Classification.Difficulty,
		&q.Classification.Confidence, &q.Classification.QualityScore, &q.Classification.ReadabilityScore,
		&fp, &q.Classification.NeedsReview, &q.Approved, &q.Deleted, &q.CreatedAt,
	)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(fp), &q.Classification.Fingerprint); err != nil {
		return q, fmt.Errorf("unmarshal fingerprint: %w", err)
	}
	return q, nil
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	row := s.db.QueryRow(`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// ListQuestions returns all questions that are not soft-deleted.
func (s *Store) ListQuestions() ([]model.Question, error) {
	return s.queryQuestions(`SELECT ` + questionColumns + ` FROM questions WHERE deleted = 0 ORDER BY id`)
}

// ListQuestionsFiltered returns non-deleted questions matching the given
// filters. Empty strings mean no filtering on that field.
func (s *Store) ListQuestionsFiltered(topic string, level model.CognitiveLevel) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE deleted = 0`
	var args []any
	if topic != "" {
		query += ` AND topic = ?`
		args = append(args, topic)
	}
	if level != "" {
		query += ` AND cognitive_level = ?`
		args = append(args, level)
	}
	query += ` ORDER BY id`
	return s.queryQuestions(query, args...)
}

// ListReviewQueue returns non-deleted questions flagged for human review.
func (s *Store) ListReviewQueue() ([]model.Question, error) {
	return s.queryQuestions(
		`SELECT ` + questionColumns + ` FROM questions WHERE deleted = 0 AND needs_review = 1 ORDER BY confidence, id`)
}

func (s *Store) queryQuestions(query string, args ...any) ([]model.Question, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpdateClassification overwrites a question's classification after a human
// review and clears the review flag.
func (s *Store) UpdateClassification(id int64, c model.Classification) error {
	fp, err := json.Marshal(c.Fingerprint)
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE questions SET cognitive_level = ?, knowledge_dimension = ?, difficulty = ?,
		 confidence = ?, quality_score = ?, readability_score = ?, fingerprint = ?, needs_review = ?
		 WHERE id = ?`,
		c.CognitiveLevel, c.KnowledgeDimension, c.Difficulty,
		c.Confidence, c.QualityScore, c.ReadabilityScore, string(fp), c.NeedsReview, id,
	)
	return err
}

// SetApproved updates the approval flag on a question.
func (s *Store) SetApproved(id int64, approved bool) error {
	_, err := s.db.Exec(`UPDATE questions SET approved = ? WHERE id = ?`, approved, id)
	return err
}

// SoftDeleteQuestion marks a question deleted without removing the row.
func (s *Store) SoftDeleteQuestion(id int64) error {
	_, err := s.db.Exec(`UPDATE questions SET deleted = 1 WHERE id = ?`, id)
	return err
}

// QuestionCount returns the number of non-deleted questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions WHERE deleted = 0`).Scan(&count)
	return count, err
}

// ListDistinctTopics returns the distinct topics of non-deleted questions.
func (s *Store) ListDistinctTopics() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT topic FROM questions WHERE deleted = 0 ORDER BY topic`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
