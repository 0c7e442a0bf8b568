// Package store persists discovered profiles and search history in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/creatorscout/creatorscout/internal/discover"
)

const (
	defaultListLimit    = 100
	maxListLimit        = 500
	defaultHistoryLimit = 20
)

const schema = `
CREATE TABLE IF NOT EXISTS influencers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	unique_profile_id TEXT UNIQUE,
	username TEXT NOT NULL COLLATE NOCASE UNIQUE,
	profile_link TEXT,
	estimated_followers TEXT,
	profile_description TEXT,
	content_focus TEXT,
	suggested_hashtags TEXT,
	open_to_collaborations TEXT,
	country TEXT,
	niche TEXT,
	discovery_date TEXT,
	status TEXT DEFAULT 'New',
	source TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_influencers_niche ON influencers(niche);
CREATE INDEX IF NOT EXISTS idx_influencers_country ON influencers(country);
CREATE INDEX IF NOT EXISTS idx_influencers_status ON influencers(status);

CREATE TABLE IF NOT EXISTS search_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword TEXT NOT NULL,
	min_followers INTEGER,
	max_followers INTEGER,
	country TEXT,
	results_count INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps one SQLite database. Method receivers are safe for concurrent
// use; the connection pool is capped at one connection because modernc/sqlite
// serializes writers anyway.
type Store struct {
	db *sql.DB
}

// Influencer is one stored profile row.
type Influencer struct {
	ID int64 `json:"id"`
	discover.Profile
	CreatedAt string `json:"created_at"`
}

// SearchRecord is one row of search history.
type SearchRecord struct {
	ID           int64  `json:"id"`
	Keyword      string `json:"keyword"`
	MinFollowers int64  `json:"min_followers"`
	MaxFollowers int64  `json:"max_followers"`
	Country      string `json:"country"`
	ResultsCount int    `json:"results_count"`
	CreatedAt    string `json:"created_at"`
}

// Stats summarizes the stored data set.
type Stats struct {
	Total        int `json:"total_influencers"`
	New          int `json:"new_count"`
	Contacted    int `json:"contacted_count"`
	OpenToCollab int `json:"open_to_collab_count"`
	Countries    int `json:"countries"`
	Niches       int `json:"niches"`
}

// Filter narrows List and Count. Zero values mean "no constraint"; Niche
// matches as a substring, follower bounds compare the numeric form of
// estimated_followers.
type Filter struct {
	Country      string
	Niche        string
	Status       string
	MinFollowers int64
	MaxFollowers int64
	Limit        int
	Offset       int
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts one profile and reports whether a row was written. A username
// already present (case-insensitively) is an ignored duplicate.
func (s *Store) Add(ctx context.Context, p discover.Profile) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO influencers (
	unique_profile_id, username, profile_link, estimated_followers,
	profile_description, content_focus, suggested_hashtags,
	open_to_collaborations, country, niche, discovery_date, status, source
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UniqueProfileID, p.Username, p.ProfileLink, p.EstimatedFollowers,
		p.ProfileDescription, p.ContentFocus, p.SuggestedHashtags,
		p.OpenToCollaborations, p.Country, p.Niche, p.DiscoveryDate, p.Status, p.Source)
	if err != nil {
		return false, fmt.Errorf("insert influencer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const selectColumns = `
SELECT id, unique_profile_id, username, profile_link, estimated_followers,
	profile_description, content_focus, suggested_hashtags,
	open_to_collaborations, country, niche, discovery_date, status, source,
	created_at
FROM influencers`

// List returns stored profiles matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Influencer, error) {
	where, args := f.whereClause()
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, selectColumns+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("list influencers: %w", err)
	}
	defer rows.Close()

	var out []Influencer
	for rows.Next() {
		var inf Influencer
		if err := rows.Scan(
			&inf.ID, &inf.UniqueProfileID, &inf.Username, &inf.ProfileLink,
			&inf.EstimatedFollowers, &inf.ProfileDescription, &inf.ContentFocus,
			&inf.SuggestedHashtags, &inf.OpenToCollaborations, &inf.Country,
			&inf.Niche, &inf.DiscoveryDate, &inf.Status, &inf.Source,
			&inf.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan influencer: %w", err)
		}
		out = append(out, inf)
	}
	return out, rows.Err()
}

// Count returns how many stored profiles match f, ignoring Limit and Offset.
func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.whereClause()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM influencers"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count influencers: %w", err)
	}
	return n, nil
}

func (f Filter) whereClause() (string, []any) {
	var conds []string
	var args []any
	if f.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, f.Country)
	}
	if f.Niche != "" {
		conds = append(conds, "niche LIKE ?")
		args = append(args, "%"+f.Niche+"%")
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	// estimated_followers is stored as text; strip separators before
	// comparing numerically. Rows with no estimate compare as 0.
	if f.MinFollowers > 0 {
		conds = append(conds, "CAST(REPLACE(estimated_followers, ',', '') AS INTEGER) >= ?")
		args = append(args, f.MinFollowers)
	}
	if f.MaxFollowers > 0 {
		conds = append(conds, "CAST(REPLACE(estimated_followers, ',', '') AS INTEGER) <= ?")
		args = append(args, f.MaxFollowers)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// UpdateStatus sets the workflow status of one row, reporting whether the row
// exists.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE influencers SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes one row, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM influencers WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete influencer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every stored profile and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM influencers")
	if err != nil {
		return 0, fmt.Errorf("clear influencers: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes the stored profiles in one query.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN status = 'New' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'Contacted' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN open_to_collaborations = 'Yes' THEN 1 ELSE 0 END), 0),
	COUNT(DISTINCT CASE WHEN country <> '' THEN country END),
	COUNT(DISTINCT CASE WHEN niche <> '' THEN niche END)
FROM influencers`).Scan(&st.Total, &st.New, &st.Contacted, &st.OpenToCollab, &st.Countries, &st.Niches)
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

// AddSearch records one discovery run in the history table.
func (s *Store) AddSearch(ctx context.Context, rec SearchRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO search_history (keyword, min_followers, max_followers, country, results_count)
VALUES (?, ?, ?, ?, ?)`,
		rec.Keyword, rec.MinFollowers, rec.MaxFollowers, rec.Country, rec.ResultsCount)
	if err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

// History returns recent searches, newest first. Non-positive limits fall
// back to the default of 20.
func (s *Store) History(ctx context.Context, limit int) ([]SearchRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, keyword, min_followers, max_followers, country, results_count, created_at
FROM search_history
ORDER BY created_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		if err := rows.Scan(&rec.ID, &rec.Keyword, &rec.MinFollowers, &rec.MaxFollowers,
			&rec.Country, &rec.ResultsCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Countries returns the distinct countries present in the store, sorted.
func (s *Store) Countries(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "country")
}

// Niches returns the distinct niches present in the store, sorted.
func (s *Store) Niches(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "niche")
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM influencers WHERE "+column+" <> '' ORDER BY "+column)
	if err != nil {
		return nil, fmt.Errorf("list %s values: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s value: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
