package leads

import (
	"context"
	"database/sql"
)

type PGStore struct {
	DB *sql.DB
}

func (s *PGStore) Upsert(ctx context.Context, lead Lead) error {
	const query = `
INSERT INTO emails (email, resume_filename, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (email) DO UPDATE SET
  resume_filename = EXCLUDED.resume_filename,
  updated_at = now()`
	_, err := s.DB.ExecContext(ctx, query, lead.Email, nullableString(lead.ResumeFilename))
	return err
}

func (s *PGStore) MarkAnalysisComplete(ctx context.Context, email string) error {
	const query = `
UPDATE emails
SET analysis_completed = true,
  analysis_completed_at = now(),
  updated_at = now()
WHERE email = $1`
	res, err := s.DB.ExecContext(ctx, query, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
