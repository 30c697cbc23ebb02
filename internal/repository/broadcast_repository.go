package repository

import (
    "database/sql"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/gosimple/slug"
    "github.com/lib/pq"

    apperr "github.com/belldivine070/CMS/internal/errors"
    "github.com/belldivine070/CMS/internal/model"
)

type BroadcastRepositoryInterface interface {
    Create(b *model.Broadcast) error
    GetByID(id int) (*model.Broadcast, error)
    ListBroadcasts(offset, limit int, audience, status string) ([]*model.Broadcast, int, error)

    // TransitionStatus applies status only if the current status is one
    // of from, and reports whether the row actually changed. This is the
    // gate that keeps concurrent dispatchers off the same broadcast.
    TransitionStatus(id int, from []string, to string) (bool, error)

    // MarkSent finishes a sending broadcast and stamps last_sent_at.
    MarkSent(id int, at time.Time) (bool, error)

    // ListDue returns broadcasts still in draft/scheduled whose
    // scheduled time has arrived.
    ListDue(now time.Time) ([]*model.Broadcast, error)
}

type BroadcastRepository struct {
    DB *sql.DB
}

func (r *BroadcastRepository) Create(b *model.Broadcast) error {
    b.ApplyDefaults()
    b.CreatedAt = time.Now()

    if b.Slug == "" {
        s, err := r.uniqueSlug(b.Title)
        if err != nil {
            return err
        }
        b.Slug = s
    }

    query := `
        INSERT INTO broadcasts (title, subject, slug, body, sender_email, audience, status, scheduled_time, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
    return r.DB.QueryRow(query, b.Title, b.Subject, b.Slug, b.Body, b.SenderEmail, b.Audience, b.Status, b.ScheduledTime, b.CreatedAt).Scan(&b.ID)
}

// uniqueSlug derives a slug from the title and disambiguates collisions
// with a short uuid suffix.
func (r *BroadcastRepository) uniqueSlug(title string) (string, error) {
    base := slug.Make(title)
    if base == "" {
        base = "untitled"
    }
    candidate := base
    for {
        var exists bool
        err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM broadcasts WHERE slug=$1)`, candidate).Scan(&exists)
        if err != nil {
            return "", err
        }
        if !exists {
            return candidate, nil
        }
        candidate = fmt.Sprintf("%s-%s", base, uuid.New().String()[:4])
    }
}

func (r *BroadcastRepository) GetByID(id int) (*model.Broadcast, error) {
    query := `
        SELECT id, title, subject, slug, body, sender_email, audience, status, scheduled_time, last_sent_at, created_at
        FROM broadcasts WHERE id=$1
    `
    var b model.Broadcast
    err := r.DB.QueryRow(query, id).Scan(&b.ID, &b.Title, &b.Subject, &b.Slug, &b.Body, &b.SenderEmail, &b.Audience, &b.Status, &b.ScheduledTime, &b.LastSentAt, &b.CreatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, apperr.NewBroadcastNotFound(id)
        }
        return nil, err
    }
    return &b, nil
}

func (r *BroadcastRepository) ListBroadcasts(offset, limit int, audience, status string) ([]*model.Broadcast, int, error) {
    broadcasts := []*model.Broadcast{}
    query := `SELECT id, title, subject, slug, body, sender_email, audience, status, scheduled_time, last_sent_at, created_at FROM broadcasts WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if audience != "" {
        query += fmt.Sprintf(" AND audience=$%d", argPos)
        args = append(args, audience)
        argPos++
    }
    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        b := &model.Broadcast{}
        if err := rows.Scan(&b.ID, &b.Title, &b.Subject, &b.Slug, &b.Body, &b.SenderEmail, &b.Audience, &b.Status, &b.ScheduledTime, &b.LastSentAt, &b.CreatedAt); err != nil {
            return nil, 0, err
        }
        broadcasts = append(broadcasts, b)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }

    countQuery := `SELECT COUNT(*) FROM broadcasts WHERE 1=1`
    argsCount := []interface{}{}
    argPosCount := 1
    if audience != "" {
        countQuery += fmt.Sprintf(" AND audience=$%d", argPosCount)
        argsCount = append(argsCount, audience)
        argPosCount++
    }
    if status != "" {
        countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
        argsCount = append(argsCount, status)
    }

    var total int
    if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return broadcasts, total, nil
}

func (r *BroadcastRepository) TransitionStatus(id int, from []string, to string) (bool, error) {
    query := `UPDATE broadcasts SET status=$1 WHERE id=$2 AND status=ANY($3)`
    res, err := r.DB.Exec(query, to, id, pq.Array(from))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

func (r *BroadcastRepository) MarkSent(id int, at time.Time) (bool, error) {
    query := `UPDATE broadcasts SET status=$1, last_sent_at=$2 WHERE id=$3 AND status=$4`
    res, err := r.DB.Exec(query, model.StatusSent, at, id, model.StatusSending)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

func (r *BroadcastRepository) ListDue(now time.Time) ([]*model.Broadcast, error) {
    query := `
        SELECT id, title, subject, slug, body, sender_email, audience, status, scheduled_time, last_sent_at, created_at
        FROM broadcasts
        WHERE status=ANY($1) AND scheduled_time IS NOT NULL AND scheduled_time <= $2
    `
    rows, err := r.DB.Query(query, pq.Array([]string{model.StatusDraft, model.StatusScheduled}), now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    due := []*model.Broadcast{}
    for rows.Next() {
        b := &model.Broadcast{}
        if err := rows.Scan(&b.ID, &b.Title, &b.Subject, &b.Slug, &b.Body, &b.SenderEmail, &b.Audience, &b.Status, &b.ScheduledTime, &b.LastSentAt, &b.CreatedAt); err != nil {
            return nil, err
        }
        due = append(due, b)
    }
    return due, rows.Err()
}

var _ BroadcastRepositoryInterface = (*BroadcastRepository)(nil)
