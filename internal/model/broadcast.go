// internal/model/broadcast.go
package model

import "time"

// Broadcast statuses. Transitions are monotonic: a sent or failed
// broadcast only re-enters draft through an explicit resend action.
const (
    StatusDraft     = "draft"
    StatusScheduled = "scheduled"
    StatusSending   = "sending"
    StatusSent      = "sent"
    StatusFailed    = "failed"
)

// Audience selectors. Values match what the admin UI stores.
const (
    AudienceAll           = "all"
    AudienceStaffOnly     = "staff_only"
    AudienceExternalOnly  = "external_only"
    AudienceClients       = "clients"
    AudienceSuperAdmins   = "super_admin"
    AudienceManagers      = "manager"
    AudienceAdministrator = "administrator"
)

// ValidAudience reports whether a selector is part of the enum.
func ValidAudience(audience string) bool {
    switch audience {
    case AudienceAll, AudienceStaffOnly, AudienceExternalOnly, AudienceClients,
        AudienceSuperAdmins, AudienceManagers, AudienceAdministrator:
        return true
    }
    return false
}

type Broadcast struct {
    ID            int        `db:"id" json:"id"`
    Title         string     `db:"title" json:"title"`
    Subject       string     `db:"subject" json:"subject"`
    Slug          string     `db:"slug" json:"slug"`
    Body          string     `db:"body" json:"body"`
    SenderEmail   string     `db:"sender_email" json:"sender_email,omitempty"`
    Audience      string     `db:"audience" json:"audience"`
    Status        string     `db:"status" json:"status"`
    ScheduledTime *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
    LastSentAt    *time.Time `db:"last_sent_at" json:"last_sent_at,omitempty"`
    CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ApplyDefaults fills the fields the admin form may leave blank.
func (b *Broadcast) ApplyDefaults() {
    if b.Subject == "" {
        b.Subject = b.Title
    }
    if b.Audience == "" {
        b.Audience = AudienceAll
    }
    if b.Status == "" {
        b.Status = StatusDraft
    }
}

// IsDue reports whether the broadcast should go out now. A broadcast
// without a scheduled time is always due.
func (b *Broadcast) IsDue(now time.Time) bool {
    if b.ScheduledTime == nil {
        return true
    }
    return !b.ScheduledTime.UTC().After(now.UTC())
}

// Sender returns the configured sender address, falling back to the
// system default when the broadcast has none.
func (b *Broadcast) Sender(fallback string) string {
    if b.SenderEmail != "" {
        return b.SenderEmail
    }
    return fallback
}
