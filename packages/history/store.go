package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/record"
	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("history entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	recording   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS exchanges_created_at ON exchanges (created_at);
`

// Entry is one stored exchange.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Method    string
	URL       string
	Status    int
	Duration  time.Duration
	Error     string
	Recording record.Recording
}

// Store is a history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database named by conn: "sqlite://path",
// "sqlite:path" or a bare path.
func Open(conn string) (*Store, error) {
	dsn := dataSource(conn)
	if dsn == "" {
		return nil, fmt.Errorf("empty history database path")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func dataSource(conn string) string {
	conn = strings.TrimSpace(conn)
	if rest, ok := strings.CutPrefix(conn, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(conn, "sqlite:"); ok {
		return rest
	}
	return conn
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores rec and returns the new entry id.
func (s *Store) Add(ctx context.Context, rec record.Recording) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encoding recording: %w", err)
	}
	created := rec.Time
	if created.IsZero() {
		created = time.Now()
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, created_at, method, url, status, duration_ms, error, recording)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, created.UnixMilli(), rec.Method, rec.URL, rec.Status, rec.Duration.Milliseconds(), rec.Error, string(data))
	if err != nil {
		return "", fmt.Errorf("inserting history entry: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first. A limit below one
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, method, url, status, duration_ms, error, recording
		 FROM exchanges ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// Get returns one entry. A unique id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, method, url, status, duration_ms, error, recording
		 FROM exchanges WHERE id LIKE ? || '%' LIMIT 2`, id)
	if err != nil {
		return Entry{}, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var found []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("reading history: %w", err)
	}
	switch len(found) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Entry{}, fmt.Errorf("history id prefix %q is ambiguous", id)
	}
}

// Clear deletes every entry and returns how many there were.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		createdMs int64
		durMs     int64
		data      string
	)
	if err := row.Scan(&e.ID, &createdMs, &e.Method, &e.URL, &e.Status, &durMs, &e.Error, &data); err != nil {
		return Entry{}, fmt.Errorf("scanning history entry: %w", err)
	}
	e.CreatedAt = time.UnixMilli(createdMs)
	e.Duration = time.Duration(durMs) * time.Millisecond
	if err := json.Unmarshal([]byte(data), &e.Recording); err != nil {
		return Entry{}, fmt.Errorf("decoding recording %s: %w", e.ID, err)
	}
	return e, nil
}
