// internal/model/directory.go
package model

// User is one row of the active-user directory the resolver reads.
// The directory itself is owned by the user-administration side of the
// application; the engine only ever reads it.
type User struct {
    ID          int    `db:"id" json:"id"`
    Email       string `db:"email" json:"email"`
    IsActive    bool   `db:"is_active" json:"is_active"`
    IsStaff     bool   `db:"is_staff" json:"is_staff"`
    IsSuperuser bool   `db:"is_superuser" json:"is_superuser"`
    IsManager   bool   `db:"is_manager" json:"is_manager"`
    RoleName    string `db:"role_name" json:"role_name"`
}

// Subscriber is an external newsletter subscriber, usually imported
// from CSV by the admin side.
type Subscriber struct {
    ID    int    `db:"id" json:"id"`
    Email string `db:"email" json:"email"`
}
