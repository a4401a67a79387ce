package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

var historyColumns = []string{
	"id", "job_title", "job_description", "resume_text", "resume_html", "ats_score",
	"matched_keywords", "missing_keywords", "suggestions", "final_resume_html", "source_type", "created_at",
}

func newRepoWithMock(t *testing.T) (*HistoryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	repo := NewHistoryRepository(db, 20)
	repo.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	repo.newID = func() string { return "h-1" }
	return repo, mock, func() { _ = db.Close() }
}

func TestCreateInsertsSnapshot(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO history").
		WithArgs("h-1", "SRE", "Go, Kubernetes", "Jane", "", 72,
			[]byte(`["Go"]`), []byte(`["Kubernetes"]`), []byte(`[]`), nil, "pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	snap, err := repo.Create(context.Background(), domain.HistoryEntry{
		JobTitle:        "SRE",
		JobDescription:  "Go, Kubernetes",
		ResumeText:      "Jane",
		ATSScore:        72,
		MatchedKeywords: []string{"Go"},
		MissingKeywords: []string{"Kubernetes"},
		SourceType:      domain.SourcePDF,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.ID != "h-1" || !snap.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListScansRowsNewestFirst(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(historyColumns).
		AddRow("h-2", "SRE", "jd", "text", "", 81, []byte(`["Go"]`), []byte(`[]`), []byte(`["tip"]`), "<p>final</p>", "docx", created.Add(time.Hour)).
		AddRow("h-1", "", "jd", "text", "", 40, []byte(`[]`), []byte(`["Go"]`), []byte(`[]`), nil, "pdf", created)
	mock.ExpectQuery("SELECT id, job_title, job_description").
		WithArgs(20).
		WillReturnRows(rows)

	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != "h-2" || items[0].FinalResumeHTML != "<p>final</p>" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[1].FinalResumeHTML != "" || items[1].SourceType != domain.SourcePDF || len(items[1].MissingKeywords) != 1 {
		t.Fatalf("unexpected second item %+v", items[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, job_title, job_description").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM history").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM history").
		WithArgs("h-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "h-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
