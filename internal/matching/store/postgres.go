// internal/matching/store/postgres.go

// Package store loads items and match candidates from Postgres, with a
// Redis read-through cache in front of single-item lookups.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "lostfound-matching/internal/common/errors"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/common/metrics"
	"lostfound-matching/internal/models"
)

// CandidateFilter narrows the candidate pool before scoring.
type CandidateFilter struct {
	Kind       models.ItemKind // kind of the candidates, not the source
	ExcludeID  int64
	CategoryID *int64
	Location   *string    // substring match, case-insensitive
	OccurredAt *time.Time // center of the time window
	WindowDays int        // half-width of the window in days
	Limit      int
}

// ItemStore reads item reports from Postgres. GetItem is backed by a
// short-lived Redis cache since the same source item is fetched on
// every ranking request.
type ItemStore struct {
	db      *sql.DB
	redis   *redis.Client
	logger  logger.Logger
	itemTTL time.Duration
}

func NewItemStore(db *sql.DB, rdb *redis.Client, log logger.Logger, itemTTL time.Duration) *ItemStore {
	return &ItemStore{
		db:      db,
		redis:   rdb,
		logger:  log,
		itemTTL: itemTTL,
	}
}

const itemColumns = `id, author_id, title, body, kind, category_id, location, occurred_at, status, is_claimed, created_at`

// GetItem fetches a single item by ID. Cache failures fall through to
// the database silently.
func (s *ItemStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	cacheKey := fmt.Sprintf("item:%d", id)

	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var item models.Item
			if err := json.Unmarshal([]byte(val), &item); err == nil {
				metrics.ItemCacheHits.WithLabelValues("hit").Inc()
				return &item, nil
			}
		}
		metrics.ItemCacheHits.WithLabelValues("miss").Inc()
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1
	`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewItemNotFoundError(fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, apperrors.NewRetrievalFailedError(err)
	}

	if s.redis != nil {
		if data, err := json.Marshal(item); err == nil {
			s.redis.Set(ctx, cacheKey, data, s.itemTTL)
		}
	}

	return item, nil
}

// FindCandidates returns the newest visible items of the requested
// kind that pass the filter, newest first. Filter fields left nil are
// not applied.
func (s *ItemStore) FindCandidates(ctx context.Context, f CandidateFilter) ([]*models.Item, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT ` + itemColumns + `
		FROM items
		WHERE status IN ('published', 'active')
		  AND is_claimed = false
		  AND kind = $1
		  AND id <> $2`)

	args := []interface{}{string(f.Kind), f.ExcludeID}

	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		fmt.Fprintf(&sb, `
		  AND category_id = $%d`, len(args))
	}
	if f.Location != nil && strings.TrimSpace(*f.Location) != "" {
		args = append(args, "%"+strings.TrimSpace(*f.Location)+"%")
		fmt.Fprintf(&sb, `
		  AND location ILIKE $%d`, len(args))
	}
	if f.OccurredAt != nil && f.WindowDays > 0 {
		window := time.Duration(f.WindowDays) * 24 * time.Hour
		args = append(args, f.OccurredAt.Add(-window), f.OccurredAt.Add(window))
		fmt.Fprintf(&sb, `
		  AND occurred_at BETWEEN $%d AND $%d`, len(args)-1, len(args))
	}

	args = append(args, f.Limit)
	fmt.Fprintf(&sb, `
		ORDER BY created_at DESC
		LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperrors.NewRetrievalFailedError(err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperrors.NewRetrievalFailedError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRetrievalFailedError(err)
	}

	return items, nil
}

// InvalidateItem drops the cached copy after an item changes.
func (s *ItemStore) InvalidateItem(ctx context.Context, id int64) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, fmt.Sprintf("item:%d", id)).Err(); err != nil {
		s.logger.Warn("failed to invalidate item cache", map[string]interface{}{
			"itemId": id,
			"error":  err.Error(),
		})
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var categoryID sql.NullInt64
	var location sql.NullString
	var occurredAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.AuthorID,
		&item.Title,
		&item.Body,
		&item.Kind,
		&categoryID,
		&location,
		&occurredAt,
		&item.Status,
		&item.Claimed,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		item.CategoryID = &categoryID.Int64
	}
	if location.Valid {
		item.Location = &location.String
	}
	if occurredAt.Valid {
		item.OccurredAt = &occurredAt.Time
	}

	return &item, nil
}
