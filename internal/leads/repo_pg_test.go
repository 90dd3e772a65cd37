package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectExec("INSERT INTO emails .* ON CONFLICT \\(email\\) DO UPDATE").
		WithArgs("jane@example.com", "resume.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Upsert(context.Background(), Lead{Email: "jane@example.com", ResumeFilename: "resume.pdf"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreUpsertWithoutFilename(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectExec("INSERT INTO emails").
		WithArgs("jane@example.com", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Upsert(context.Background(), Lead{Email: "jane@example.com"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreMarkAnalysisComplete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectExec("UPDATE emails\\s+SET analysis_completed = true").
		WithArgs("jane@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE emails").
		WithArgs("ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.MarkAnalysisComplete(context.Background(), "jane@example.com"); err != nil {
		t.Fatalf("MarkAnalysisComplete: %v", err)
	}
	if err := store.MarkAnalysisComplete(context.Background(), "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStorePropagatesErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	boom := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO emails").WillReturnError(boom)

	if err := store.Upsert(context.Background(), Lead{Email: "a@b.co"}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
