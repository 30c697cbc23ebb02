// internal/model/delivery.go
package model

import "time"

// Terminal outcomes of a delivery attempt.
const (
    DeliveryDelivered = "delivered"
    DeliveryAbandoned = "abandoned"
)

// DeliveryAttempt is the persisted record of one recipient-scoped send,
// including how many transport attempts it took.
type DeliveryAttempt struct {
    ID          int       `db:"id" json:"id"`
    BroadcastID int       `db:"broadcast_id" json:"broadcast_id"`
    Recipient   string    `db:"recipient" json:"recipient"`
    Status      string    `db:"status" json:"status"`
    Attempts    int       `db:"attempts" json:"attempts"`
    LastError   string    `db:"last_error" json:"last_error,omitempty"`
    CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
