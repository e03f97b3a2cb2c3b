package storage

import (
	"context"
	"fmt"
	"time"
)

// Alert is an archived conflict alert.
type Alert struct {
	ID               string
	Declarant        string
	CoincidentEntity string
	Flagged          int
	EmittedAt        time.Time
}

// RecordAlert archives a. It reports false when an alert with the same ID was
// already stored, so redeliveries are harmless.
func (r *SQLiteRepository) RecordAlert(ctx context.Context, a Alert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO conflict_alerts (id, nombre_declarante, ente_coincidente, contratos_marcados, emitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Declarant, a.CoincidentEntity, a.Flagged, a.EmittedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (r *SQLiteRepository) RecentAlerts(ctx context.Context, limit int) ([]Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, nombre_declarante, ente_coincidente, contratos_marcados, emitted_at
		FROM conflict_alerts
		ORDER BY emitted_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.Declarant, &a.CoincidentEntity, &a.Flagged, &a.EmittedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
