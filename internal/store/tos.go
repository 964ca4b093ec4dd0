package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/qbank/internal/model"
)

// SaveMatrix stores a requirement matrix and its cells. Topic order is
// preserved through topic_position so GetMatrix reconstructs the matrix in
// authoring order.
func (s *Store) SaveMatrix(m model.RequirementMatrix) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO tos_matrices (name, created_at) VALUES (?, ?)`,
		m.Name, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	matrixID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for pos, tr := range m.Topics {
		for _, level := range model.CognitiveLevels {
			required := tr.Cells[level]
			if required <= 0 {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO tos_cells (matrix_id, topic_position, topic, level, required) VALUES (?, ?, ?, ?, ?)`,
				matrixID, pos, tr.Topic, level, required,
			)
			if err != nil {
				return 0, err
			}
		}
	}

	return matrixID, tx.Commit()
}

// GetMatrix returns a requirement matrix by ID with topics in authoring
// order. A matrix with no cells comes back with an empty (non-nil) topic
// list.
func (s *Store) GetMatrix(id int64) (model.RequirementMatrix, error) {
	m := model.RequirementMatrix{ID: id, Topics: []model.TopicRequirement{}}
	err := s.db.QueryRow(`SELECT name FROM tos_matrices WHERE id = ?`, id).Scan(&m.Name)
	if err != nil {
		return m, err
	}

	rows, err := s.db.Query(
		`SELECT topic_position, topic, level, required FROM tos_cells
		 WHERE matrix_id = ? ORDER BY topic_position, id`, id,
	)
	if err != nil {
		return m, err
	}
	defer rows.Close()

	lastPos := -1
	for rows.Next() {
		var pos, required int
		var topic string
		var level model.CognitiveLevel
		if err := rows.Scan(&pos, &topic, &level, &required); err != nil {
			return m, err
		}
		if pos != lastPos {
			m.Topics = append(m.Topics, model.TopicRequirement{
				Topic: topic,
				Cells: make(map[model.CognitiveLevel]int),
			})
			lastPos = pos
		}
		m.Topics[len(m.Topics)-1].Cells[level] = required
	}
	return m, rows.Err()
}

// GetMatrixByName returns a matrix by its unique name, or nil if absent.
func (s *Store) GetMatrixByName(name string) (*model.RequirementMatrix, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM tos_matrices WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := s.GetMatrix(id)
	if err != nil {
		return nil, fmt.Errorf("load matrix %q: %w", name, err)
	}
	return &m, nil
}

// ListMatrices returns the ID and name of every stored matrix.
func (s *Store) ListMatrices() ([]model.RequirementMatrix, error) {
	rows, err := s.db.Query(`SELECT id, name FROM tos_matrices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matrices []model.RequirementMatrix
	for rows.Next() {
		var m model.RequirementMatrix
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		matrices = append(matrices, m)
	}
	return matrices, rows.Err()
}

// DeleteMatrix removes a matrix and its cells.
func (s *Store) DeleteMatrix(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tos_cells WHERE matrix_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM tos_matrices WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
