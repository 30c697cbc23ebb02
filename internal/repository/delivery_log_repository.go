package repository

import (
	"database/sql"
	"time"

	"github.com/belldivine070/CMS/internal/model"
)

// DeliveryLogRepositoryInterface persists the terminal outcome of each
// recipient-scoped delivery so the admin screens can show per-broadcast
// stats. The campaign status contract does not depend on it.
type DeliveryLogRepositoryInterface interface {
	Record(a *model.DeliveryAttempt) error
	StatsForBroadcast(broadcastID int) (map[string]int, error)
}

type DeliveryLogRepository struct {
	DB *sql.DB
}

func (r *DeliveryLogRepository) Record(a *model.DeliveryAttempt) error {
	a.CreatedAt = time.Now()
	query := `
        INSERT INTO delivery_attempts (broadcast_id, recipient, status, attempts, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, a.BroadcastID, a.Recipient, a.Status, a.Attempts, a.LastError, a.CreatedAt).Scan(&a.ID)
}

func (r *DeliveryLogRepository) StatsForBroadcast(broadcastID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM delivery_attempts WHERE broadcast_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, broadcastID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.DeliveryDelivered: 0,
		model.DeliveryAbandoned: 0,
	}
	total := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		total += count
	}
	stats["total"] = total
	return stats, rows.Err()
}

var _ DeliveryLogRepositoryInterface = (*DeliveryLogRepository)(nil)
