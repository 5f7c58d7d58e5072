package postgres

import (
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Note: We can't create a real *sql.Tx without a database connection,
// so these tests only verify construction and the WithTx contract shape.
// Actual transaction behavior is exercised in integration tests.

func TestLearnerStoreWithTx(t *testing.T) {
	db := &sql.DB{}
	s := NewPostgresLearnerStore(db, slog.Default())

	tx := &sql.Tx{}
	result := s.WithTx(tx)

	assert.NotNil(t, result)
	assert.NotSame(t, s, result)
}

func TestSessionStoreWithTx(t *testing.T) {
	db := &sql.DB{}
	s := NewPostgresSessionStore(db, slog.Default())

	tx := &sql.Tx{}
	result := s.WithTx(tx)

	assert.NotNil(t, result)
	assert.NotSame(t, s, result)
}

func TestVocabularyStoreWithTx(t *testing.T) {
	db := &sql.DB{}
	s := NewPostgresVocabularyStore(db, slog.Default())

	tx := &sql.Tx{}
	result := s.WithTx(tx)

	assert.NotNil(t, result)
	assert.NotSame(t, s, result)
}

func TestErrorLogStoreWithTx(t *testing.T) {
	db := &sql.DB{}
	s := NewPostgresErrorLogStore(db, slog.Default())

	tx := &sql.Tx{}
	result := s.WithTx(tx)

	assert.NotNil(t, result)
	assert.NotSame(t, s, result)
}

func TestNewStoresPanicOnNilDB(t *testing.T) {
	assert.Panics(t, func() { NewPostgresLearnerStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresSessionStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresVocabularyStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresErrorLogStore(nil, nil) })
}
