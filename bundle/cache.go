package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS payloads (
	key      TEXT PRIMARY KEY,
	format   TEXT NOT NULL,
	data     BLOB NOT NULL,
	warnings TEXT NOT NULL DEFAULT '',
	created  INTEGER NOT NULL
);
`

// Entry is cached compilation result.
type Entry struct {
	Data     []byte
	Warnings []string
}

// Cache keeps serialized payloads keyed by hash of stylesheet source and
// everything affecting its compilation. Not safe for concurrent use.
type Cache struct {
	log  *zap.Logger
	conn *sqlite.Conn
}

// OpenCache opens (creating if necessary) cache database. Path ":memory:"
// gives cache living as long as the process.
func OpenCache(log *zap.Logger, path string) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == ":memory:" {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		flags = append(flags, sqlite.OpenWAL)
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open compile cache (%s): %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, cacheSchema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare compile cache (%s): %w", path, err)
	}
	return &Cache{log: log.Named("cache"), conn: conn}, nil
}

// Key hashes parts into cache key.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns cached entry or nil.
func (c *Cache) Get(key, format string) (*Entry, error) {
	var e *Entry
	err := sqlitex.Execute(c.conn, `SELECT data, warnings FROM payloads WHERE key = ? AND format = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key, format},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				data := make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, data)
				e = &Entry{Data: data}
				if w := stmt.ColumnText(1); len(w) > 0 {
					e.Warnings = strings.Split(w, "\n")
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to query compile cache: %w", err)
	}
	c.log.Debug("Cache lookup", zap.String("key", key), zap.Bool("hit", e != nil))
	return e, nil
}

// Put stores entry replacing previous one with the same key.
func (c *Cache) Put(key, format string, e *Entry) error {
	err := sqlitex.Execute(c.conn,
		`INSERT OR REPLACE INTO payloads (key, format, data, warnings, created) VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{key, format, e.Data, strings.Join(e.Warnings, "\n"), time.Now().Unix()},
		})
	if err != nil {
		return fmt.Errorf("unable to update compile cache: %w", err)
	}
	return nil
}

// Len returns number of cached entries.
func (c *Cache) Len() (int, error) {
	n, err := sqlitex.ResultInt(c.conn.Prep(`SELECT count(*) FROM payloads`))
	if err != nil {
		return 0, fmt.Errorf("unable to query compile cache: %w", err)
	}
	return n, nil
}

// Close closes cache database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.conn.Close()
}
