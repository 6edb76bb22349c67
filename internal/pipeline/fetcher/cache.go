package fetcher

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"priceflow/logger"
)

// Cache persists catalog responses keyed by request URL so an interrupted
// export resumes without re-downloading pages it already has. Entries expire
// after a configured number of days. The cache is shared between processes;
// every read or write failure is treated as a miss so a corrupted or
// contended store can never fail a fetch.
type Cache struct {
	db     *sql.DB
	expiry time.Duration
	log    *logger.Log
}

// OpenCache opens (or creates) the SQLite store at path. The busy timeout
// lets concurrent exports share one store without immediate lock errors.
func OpenCache(path string, expireDays int) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open %q: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}

	return &Cache{
		db:     db,
		expiry: time.Duration(expireDays) * 24 * time.Hour,
		log:    logger.GetLogger(),
	}, nil
}

// Get returns the cached body for url. A missing, expired or unreadable
// entry reports a miss.
func (c *Cache) Get(url string) ([]byte, bool) {
	var body []byte
	var fetchedAt int64

	err := c.db.QueryRow(`SELECT body, fetched_at FROM pages WHERE url = ?`, url).
		Scan(&body, &fetchedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.WithComponent("cache").WithError(err).Warn("cache read failed; falling back to live fetch")
		}
		return nil, false
	}

	if time.Since(time.Unix(fetchedAt, 0)) > c.expiry {
		return nil, false
	}

	return body, true
}

// Put stores the body for url, replacing any previous entry. Write failures
// only log a warning; the fetch that produced the body already succeeded.
func (c *Cache) Put(url string, body []byte) {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO pages (url, body, fetched_at) VALUES (?, ?, ?)`,
		url, body, time.Now().Unix(),
	)
	if err != nil {
		c.log.WithComponent("cache").WithError(err).Warn("cache write failed")
	}
}

// Prune deletes expired entries. Advisory housekeeping for long-lived stores.
func (c *Cache) Prune() {
	cutoff := time.Now().Add(-c.expiry).Unix()
	if _, err := c.db.Exec(`DELETE FROM pages WHERE fetched_at < ?`, cutoff); err != nil {
		c.log.WithComponent("cache").WithError(err).Warn("cache prune failed")
	}
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}
