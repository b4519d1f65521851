package security

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HashStore keeps the moderation blocklist: hashes of config texts that may
// not be uploaded again.
type HashStore struct {
	db *sql.DB
}

// BlockedHash represents a stored blocklist entry
type BlockedHash struct {
	Hash       string    `json:"hash"`
	ThreatType string    `json:"threat_type"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	Count      int       `json:"count"`
}

// NewHashStore opens (creating if needed) the blocklist database at dbPath
func NewHashStore(dbPath string) (*HashStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blocklist directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open blocklist database: %w", err)
	}

	store := &HashStore{db: db}
	if err := store.initSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize blocklist schema: %w", err)
	}

	return store, nil
}

func (s *HashStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS blocked_hashes (
		hash TEXT PRIMARY KEY,
		threat_type TEXT NOT NULL,
		confidence REAL NOT NULL,
		reason TEXT NOT NULL,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		count INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_blocked_threat_type ON blocked_hashes(threat_type);
	CREATE INDEX IF NOT EXISTS idx_blocked_last_seen ON blocked_hashes(last_seen);
	`

	_, err := s.db.Exec(query)
	return err
}

// Block adds hash to the blocklist. Blocking a hash again bumps its count and
// keeps the higher confidence.
func (s *HashStore) Block(hash string, threat Threat) error {
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO blocked_hashes (hash, threat_type, confidence, reason, first_seen, last_seen, count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(hash) DO UPDATE SET
			last_seen = excluded.last_seen,
			count = count + 1,
			confidence = MAX(confidence, excluded.confidence),
			reason = excluded.reason
	`, hash, threat.Type, threat.Confidence, threat.Reason, now, now)
	if err != nil {
		return fmt.Errorf("failed to block %s: %w", hash, err)
	}
	return nil
}

// BlockContent hashes content and blocks it.
func (s *HashStore) BlockContent(content string, threat Threat) (string, error) {
	hash := CreateHash(content)
	return hash, s.Block(hash, threat)
}

// HasHash checks if a hash is on the blocklist
func (s *HashStore) HasHash(hash string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM blocked_hashes WHERE hash = ? LIMIT 1", hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to check hash existence: %w", err)
	}
	return true, nil
}

const blockedColumns = "hash, threat_type, confidence, reason, first_seen, last_seen, count"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlocked(row rowScanner) (BlockedHash, error) {
	var e BlockedHash
	err := row.Scan(&e.Hash, &e.ThreatType, &e.Confidence, &e.Reason, &e.FirstSeen, &e.LastSeen, &e.Count)
	return e, err
}

// GetHash retrieves a blocklist entry; nil when the hash is not blocked
func (s *HashStore) GetHash(hash string) (*BlockedHash, error) {
	entry, err := scanBlocked(s.db.QueryRow("SELECT "+blockedColumns+" FROM blocked_hashes WHERE hash = ?", hash))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get hash: %w", err)
	}
	return &entry, nil
}

// IsBlocked checks whether content (after cleaning) is on the blocklist.
func (s *HashStore) IsBlocked(content string) (bool, *BlockedHash, error) {
	entry, err := s.GetHash(CreateHash(content))
	if err != nil {
		return false, nil, err
	}
	return entry != nil, entry, nil
}

// List returns blocklist entries, most recently seen first. An empty
// threatType lists everything.
func (s *HashStore) List(threatType string) ([]BlockedHash, error) {
	query := "SELECT " + blockedColumns + " FROM blocked_hashes"
	var args []any
	if threatType != "" {
		query += " WHERE threat_type = ?"
		args = append(args, threatType)
	}

	rows, err := s.db.Query(query+" ORDER BY last_seen DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked hashes: %w", err)
	}
	defer rows.Close()

	var entries []BlockedHash
	for rows.Next() {
		entry, err := scanBlocked(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocked hash: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Unblock removes a hash from the blocklist
func (s *HashStore) Unblock(hash string) error {
	if _, err := s.db.Exec("DELETE FROM blocked_hashes WHERE hash = ?", hash); err != nil {
		return fmt.Errorf("failed to remove hash: %w", err)
	}
	return nil
}

// Stats summarizes the blocklist.
type Stats struct {
	Total          int            `json:"total_hashes"`
	ThreatTypes    map[string]int `json:"threat_types"`
	HighConfidence int            `json:"high_confidence_count"`
}

// GetStats counts entries overall, per threat type, and above 0.8 confidence.
func (s *HashStore) GetStats() (*Stats, error) {
	entries, err := s.List("")
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(entries), ThreatTypes: make(map[string]int)}
	for _, e := range entries {
		stats.ThreatTypes[e.ThreatType]++
		if e.Confidence > 0.8 {
			stats.HighConfidence++
		}
	}
	return stats, nil
}

// Close closes the database connection
func (s *HashStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
