// internal/service/resolver.go
package service

import (
    "sort"
    "strings"

    apperr "github.com/belldivine070/CMS/internal/errors"
    "github.com/belldivine070/CMS/internal/model"
    "github.com/belldivine070/CMS/internal/repository"
)

// RecipientResolver turns an audience selector into a deduplicated set
// of addresses. It only reads the stores the selector implies: the
// external-only audience never touches the user directory, and vice
// versa for the internal audiences.
type RecipientResolver struct {
    Users       repository.UserRepositoryInterface
    Subscribers repository.SubscriberRepositoryInterface
}

// Resolve returns a sorted slice with no duplicates and no empty
// entries. An empty result is valid, not an error.
func (r *RecipientResolver) Resolve(audience string) ([]string, error) {
    emails := map[string]struct{}{}

    addUsers := func(keep func(u model.User) bool) error {
        users, err := r.Users.ListActive()
        if err != nil {
            return err
        }
        for _, u := range users {
            if keep(u) {
                add(emails, u.Email)
            }
        }
        return nil
    }

    addSubscribers := func() error {
        subs, err := r.Subscribers.ListAll()
        if err != nil {
            return err
        }
        for _, s := range subs {
            add(emails, s.Email)
        }
        return nil
    }

    var err error
    switch audience {
    case model.AudienceAll:
        if err = addUsers(func(model.User) bool { return true }); err == nil {
            err = addSubscribers()
        }
    case model.AudienceStaffOnly:
        err = addUsers(func(u model.User) bool { return u.IsStaff })
    case model.AudienceExternalOnly:
        err = addSubscribers()
    case model.AudienceClients:
        err = addUsers(func(u model.User) bool { return strings.EqualFold(u.RoleName, "clients") })
    case model.AudienceSuperAdmins:
        err = addUsers(func(u model.User) bool { return u.IsSuperuser })
    case model.AudienceManagers:
        err = addUsers(func(u model.User) bool { return u.IsManager })
    case model.AudienceAdministrator:
        err = addUsers(func(u model.User) bool { return strings.EqualFold(u.RoleName, "administrator") })
    default:
        return nil, &apperr.ErrUnknownAudience{Audience: audience}
    }
    if err != nil {
        return nil, err
    }

    out := make([]string, 0, len(emails))
    for e := range emails {
        out = append(out, e)
    }
    sort.Strings(out)
    return out, nil
}

func add(set map[string]struct{}, email string) {
    email = strings.TrimSpace(email)
    if email == "" {
        return
    }
    set[email] = struct{}{}
}

// CleanRecipients applies the resolver's set guarantees to an
// explicitly supplied recipient list (the curated override chosen at
// send time).
func CleanRecipients(in []string) []string {
    set := map[string]struct{}{}
    for _, e := range in {
        add(set, e)
    }
    out := make([]string, 0, len(set))
    for e := range set {
        out = append(out, e)
    }
    sort.Strings(out)
    return out
}
