package store

import "database/sql"

// SetMetadata upserts a key-value pair in the bank_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO bank_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM bank_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetImportedFileHash returns the recorded content hash for an imported
// questions file, or empty string if the file was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	return s.GetMetadata("imported:" + path)
}

// SetImportedFileHash records the content hash of an imported questions file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	return s.SetMetadata("imported:"+path, hash)
}
