package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// LookupScan returns the cached risk for a component path and content hash.
func (db *DB) LookupScan(ctx context.Context, path, hash string) (models.RiskLevel, string, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var risk string
	var detail sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT risk, detail FROM scan_cache WHERE path = ? AND hash = ?`, path, hash,
	).Scan(&risk, &detail)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("lookup scan: %w", err)
	}
	return models.ParseRiskLevel(risk), detail.String, true, nil
}

// StoreScan caches a scan outcome. Older entries for the same path are replaced.
func (db *DB) StoreScan(ctx context.Context, path, hash string, risk models.RiskLevel, detail string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scan_cache WHERE path = ?`, path); err != nil {
			return fmt.Errorf("store scan: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scan_cache (path, hash, risk, detail, scanned_at) VALUES (?, ?, ?, ?, ?)`,
			path, hash, string(risk), detail, formatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("store scan: %w", err)
		}
		return nil
	})
}

// ClearScanCache removes every cached scan and returns how many were removed.
func (db *DB) ClearScanCache(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM scan_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear scan cache: %w", err)
	}
	return res.RowsAffected()
}
