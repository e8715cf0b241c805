// Package history keeps a delivery audit log in SQLite: one row per
// confirmed item delivery per destination. The log is diagnostic only,
// dispatch decisions come from the ledger, so writes here are
// best-effort from the caller's point of view.
package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/feedrelay/feedrelay/pkg/domain"
)

//go:embed schema.sql
var schemaFS embed.FS

// errCritical marks database errors retrying can't fix.
var errCritical = errors.New("critical db error")

// Delivery is one audit row.
type Delivery struct {
	ID          int64     `db:"id" json:"id"`
	ItemID      string    `db:"item_id" json:"item_id"`
	Destination string    `db:"destination" json:"destination"`
	Title       string    `db:"title" json:"title"`
	URL         string    `db:"url" json:"url"`
	DeliveredAt time.Time `db:"delivered_at" json:"delivered_at"`
}

// Log is the sqlite-backed audit log.
type Log struct {
	db *sqlx.DB
}

// NewLog opens (or creates) the audit database and applies the schema.
func NewLog(ctx context.Context, dsn string) (*Log, error) {
	if dsn == "" {
		dsn = "file:history.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Record appends one delivery. Duplicate (item, destination) pairs are
// ignored so catchup re-runs stay clean.
func (l *Log) Record(ctx context.Context, destination string, item domain.Item) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `INSERT OR IGNORE INTO deliveries (item_id, destination, title, url) VALUES (?, ?, ?, ?)`
		_, err := l.db.ExecContext(ctx, query, item.ID, destination, item.Title, item.URL)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return fmt.Errorf("%w: insert delivery: %v", errCritical, err)
		}
		return nil
	}, errCritical)
}

// Recent returns the newest deliveries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}

	var res []Delivery
	query := `SELECT id, item_id, destination, title, url, delivered_at
		FROM deliveries ORDER BY delivered_at DESC, id DESC LIMIT ?`
	if err := l.db.SelectContext(ctx, &res, query, limit); err != nil {
		return nil, fmt.Errorf("select recent deliveries: %w", err)
	}
	return res, nil
}

// CountByDestination returns total delivered items per destination.
func (l *Log) CountByDestination(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Destination string `db:"destination"`
		Count       int    `db:"count"`
	}{}
	query := `SELECT destination, count(*) AS count FROM deliveries GROUP BY destination`
	if err := l.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count deliveries: %w", err)
	}

	res := map[string]int{}
	for _, r := range rows {
		res[r.Destination] = r.Count
	}
	return res, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
