package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

const defaultListLimit = 100

// HistoryRepository keeps analysis snapshots in Postgres for setups without
// the remote history service.
type HistoryRepository struct {
	db    *sql.DB
	limit int
	now   func() time.Time
	newID func() string
}

func NewHistoryRepository(db *sql.DB, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return &HistoryRepository{db: db, limit: limit, now: time.Now, newID: uuid.NewString}
}

func (r *HistoryRepository) Create(ctx context.Context, entry domain.HistoryEntry) (*domain.HistorySnapshot, error) {
	matched, missing, suggestions, err := marshalLists(entry)
	if err != nil {
		return nil, err
	}
	snapshot := domain.HistorySnapshot{
		ID:           r.newID(),
		HistoryEntry: entry,
		CreatedAt:    r.now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO history (
	id, job_title, job_description, resume_text, resume_html, ats_score,
	matched_keywords, missing_keywords, suggestions, final_resume_html, source_type, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		snapshot.ID, entry.JobTitle, entry.JobDescription, entry.ResumeText, entry.ResumeHTML, entry.ATSScore,
		matched, missing, suggestions, nullableString(entry.FinalResumeHTML), string(entry.SourceType), snapshot.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	return &snapshot, nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]domain.HistorySnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, job_title, job_description, resume_text, resume_html, ats_score,
	matched_keywords, missing_keywords, suggestions, final_resume_html, source_type, created_at
FROM history
ORDER BY created_at DESC
LIMIT $1
`, r.limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.HistorySnapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (r *HistoryRepository) Get(ctx context.Context, id string) (*domain.HistorySnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, job_title, job_description, resume_text, resume_html, ats_score,
	matched_keywords, missing_keywords, suggestions, final_resume_html, source_type, created_at
FROM history
WHERE id = $1
`, id)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get history", fmt.Errorf("history entry %s", id))
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *HistoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete history", fmt.Errorf("history entry %s", id))
	}
	return nil
}

type snapshotScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row snapshotScanner) (domain.HistorySnapshot, error) {
	var (
		s                             domain.HistorySnapshot
		matched, missing, suggestions []byte
		finalHTML                     sql.NullString
		sourceType                    string
	)
	err := row.Scan(
		&s.ID, &s.JobTitle, &s.JobDescription, &s.ResumeText, &s.ResumeHTML, &s.ATSScore,
		&matched, &missing, &suggestions, &finalHTML, &sourceType, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scan history: %w", err)
	}
	if err := unmarshalList(matched, &s.MatchedKeywords); err != nil {
		return s, err
	}
	if err := unmarshalList(missing, &s.MissingKeywords); err != nil {
		return s, err
	}
	if err := unmarshalList(suggestions, &s.Suggestions); err != nil {
		return s, err
	}
	s.FinalResumeHTML = finalHTML.String
	s.SourceType = domain.SourceType(sourceType)
	return s, nil
}

func marshalLists(entry domain.HistoryEntry) ([]byte, []byte, []byte, error) {
	lists := make([][]byte, 0, 3)
	for _, list := range [][]string{entry.MatchedKeywords, entry.MissingKeywords, entry.Suggestions} {
		if list == nil {
			list = []string{}
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshal keyword list: %w", err)
		}
		lists = append(lists, raw)
	}
	return lists[0], lists[1], lists[2], nil
}

func unmarshalList(raw []byte, out *[]string) error {
	*out = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal keyword list: %w", err)
	}
	return nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
