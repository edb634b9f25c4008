package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/multiregion/internal/model"
	"github.com/edvin/multiregion/internal/platform"
)

// EntryService stores guestbook entries. Reads work against any replica;
// writes only succeed on the primary and fail with a read-only error
// elsewhere.
type EntryService struct {
	db     DB
	region string
}

func NewEntryService(db DB, region string) *EntryService {
	return &EntryService{db: db, region: region}
}

func (s *EntryService) Create(ctx context.Context, author, message string) (*model.Entry, error) {
	// IDs sort by creation time, so keyset pagination on id is chronological.
	e := &model.Entry{
		ID:        platform.NewID(),
		Author:    author,
		Message:   message,
		Region:    s.region,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO entries (id, author, message, region, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Author, e.Message, e.Region, e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return e, nil
}

func (s *EntryService) GetByID(ctx context.Context, id string) (*model.Entry, error) {
	var e model.Entry
	err := s.db.QueryRow(ctx,
		"SELECT id, author, message, region, created_at FROM entries WHERE id = $1", id,
	).Scan(&e.ID, &e.Author, &e.Message, &e.Region, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return &e, nil
}

// List returns entries newest first. cursor is the id of the last entry of
// the previous page.
func (s *EntryService) List(ctx context.Context, limit int, cursor string) ([]model.Entry, bool, error) {
	query := `SELECT id, author, message, region, created_at FROM entries`
	args := []any{}
	argIdx := 1

	if cursor != "" {
		query += fmt.Sprintf(` WHERE id < $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Author, &e.Message, &e.Region, &e.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate entries: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete entry %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}
