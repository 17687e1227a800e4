package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/internal/types"
)

// ErrNotFound is returned when a watch item id does not exist (anymore).
var ErrNotFound = types.ErrWatchItemNotFound

const selectWatchItem = `SELECT id, concert_name, ticket_url, email, target_price, last_price, lowest_price, created_at FROM watchlist`

// AddWatchItem inserts a new item with no observed prices and returns its id.
func (s *Store) AddWatchItem(ctx context.Context, concertName, ticketURL, email string, targetPrice *float64) (int64, error) {
	query := `
	INSERT INTO watchlist (concert_name, ticket_url, email, target_price, last_price, lowest_price)
	VALUES (?, ?, ?, ?, NULL, NULL);`

	res, err := s.db.ExecContext(ctx, query, concertName, ticketURL, email, nullFloat(targetPrice))
	if err != nil {
		return 0, fmt.Errorf("failed to insert watch item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}

	log.WithFields(log.Fields{
		"id":           id,
		"concert_name": concertName,
		"ticket_url":   ticketURL,
		"email":        email,
	}).Info("Watch item added")
	return id, nil
}

// ListWatchItems returns every item ordered by id.
func (s *Store) ListWatchItems(ctx context.Context) ([]types.WatchItem, error) {
	rows, err := s.db.QueryContext(ctx, selectWatchItem+` ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var items []types.WatchItem
	for rows.Next() {
		item, err := scanWatchItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist: %w", err)
	}

	return items, nil
}

// GetWatchItem fetches one item by id.
func (s *Store) GetWatchItem(ctx context.Context, id int64) (types.WatchItem, error) {
	row := s.db.QueryRowContext(ctx, selectWatchItem+` WHERE id = ?;`, id)
	item, err := scanWatchItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.WatchItem{}, ErrNotFound
	}
	return item, err
}

// UpdateWatchItem writes the non-nil fields of u. It returns ErrNotFound
// when the item was deleted in the meantime.
func (s *Store) UpdateWatchItem(ctx context.Context, id int64, u types.PriceUpdate) error {
	if u.Empty() {
		return nil
	}

	var (
		sets []string
		args []interface{}
	)
	if u.LastPrice != nil {
		sets = append(sets, "last_price = ?")
		args = append(args, *u.LastPrice)
	}
	if u.LowestPrice != nil {
		sets = append(sets, "lowest_price = ?")
		args = append(args, *u.LowestPrice)
	}
	args = append(args, id)

	query := `UPDATE watchlist SET ` + strings.Join(sets, ", ") + ` WHERE id = ?;`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update watch item %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWatchItem removes an item and reports how many rows were deleted.
func (s *Store) DeleteWatchItem(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE id = ?;`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete watch item: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWatchItem(row scanner) (types.WatchItem, error) {
	var (
		item                 types.WatchItem
		target, last, lowest sql.NullFloat64
		createdAt            sql.NullString
	)
	err := row.Scan(&item.ID, &item.ConcertName, &item.TicketURL, &item.Email, &target, &last, &lowest, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return item, err
		}
		return item, fmt.Errorf("failed to scan row: %w", err)
	}

	item.TargetPrice = floatPtr(target)
	item.LastPrice = floatPtr(last)
	item.LowestPrice = floatPtr(lowest)
	if createdAt.Valid {
		item.CreatedAt = parseTimestamp(createdAt.String)
	}
	return item, nil
}

// parseTimestamp accepts both sqlite's CURRENT_TIMESTAMP text and the
// RFC 3339 form the driver produces for TIMESTAMP columns.
func parseTimestamp(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
