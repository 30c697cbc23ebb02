package repository

import (
	"database/sql"

	"github.com/belldivine070/CMS/internal/model"
)

// UserRepositoryInterface is the read-only view of the user directory
// the resolver needs. Only active users are ever relevant to delivery.
type UserRepositoryInterface interface {
	ListActive() ([]model.User, error)
}

// SubscriberRepositoryInterface is the read-only view of the external
// subscriber list.
type SubscriberRepositoryInterface interface {
	ListAll() ([]model.Subscriber, error)
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) ListActive() ([]model.User, error) {
	query := `
        SELECT id, email, is_active, is_staff, is_superuser, is_manager, COALESCE(role_name, '')
        FROM users
        WHERE is_active = TRUE
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.IsManager, &u.RoleName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type SubscriberRepository struct {
	DB *sql.DB
}

func (r *SubscriberRepository) ListAll() ([]model.Subscriber, error) {
	query := `SELECT id, email FROM subscribers`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
