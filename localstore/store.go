// Package localstore keeps in-progress state (builder auto-save, respondent
// answers) under string keys, outside of the published survey data.
package localstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
)

const BuilderAutosaveKey = "surveyforge_autosave"

// ResponsesKey is where a respondent's answers to survey id are kept until
// submission.
func ResponsesKey(surveyID string) string {
	return "survey_" + surveyID + "_responses"
}

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() Store {
	return &memoryStore{values: map[string][]byte{}}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "key %q", key)
	}
	return append([]byte(nil), v...), nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore keeps values in the local_store table created by the
// database migrations.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db}
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.
		QueryRowContext(ctx, "SELECT value FROM local_store WHERE key = ?", key).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(model.ErrNotFound, "key %q", key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "local_store.get")
	}
	return value, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key,
		value,
		time.Now(),
	)
	return errors.Wrap(err, "local_store.set")
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM local_store WHERE key = ?", key)
	return errors.Wrap(err, "local_store.delete")
}
