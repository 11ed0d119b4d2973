package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, namespace, filename").
		WithArgs("missing", "alice").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "alice", "missing")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrDocumentNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDScansDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "namespace", "filename", "mime_type", "storage_path", "chunk_count", "status", "error_message", "created_at", "updated_at",
	}).AddRow("doc-1", "alice", "report.pdf", "application/pdf", "alice/doc-1_report.pdf", 42, "ready", "", now, now)

	mock.ExpectQuery("SELECT id, namespace, filename").
		WithArgs("doc-1", "alice").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "alice", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 42, doc.ChunkCount)
	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, "alice", doc.Namespace)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByNamespaceReturnsRowsInOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "namespace", "filename", "mime_type", "storage_path", "chunk_count", "status", "error_message", "created_at", "updated_at",
	}).
		AddRow("doc-2", "alice", "b.pdf", "application/pdf", "p2", 3, "ready", "", now, now).
		AddRow("doc-1", "alice", "a.pdf", "application/pdf", "p1", 1, "failed", "boom", now, now)

	mock.ExpectQuery("FROM documents").WithArgs("alice").WillReturnRows(rows)

	docs, err := repo.ListByNamespace(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-2", docs[0].ID)
	assert.Equal(t, "boom", docs[1].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrDocumentNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetChunkCountReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetChunkCount(context.Background(), "missing", 7)
	assert.True(t, domain.IsKind(err, domain.ErrDocumentNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
