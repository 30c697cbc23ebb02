// internal/controller/broadcast_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    apperr "github.com/belldivine070/CMS/internal/errors"
    "github.com/belldivine070/CMS/internal/model"
    "github.com/belldivine070/CMS/internal/service"
)

type BroadcastController struct {
    BroadcastService *service.BroadcastService
    Resolver         *service.RecipientResolver
}

func (c *BroadcastController) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Title         string  `json:"title"`
        Subject       string  `json:"subject"`
        Body          string  `json:"body"`
        SenderEmail   string  `json:"sender_email"`
        Audience      string  `json:"audience"`
        ScheduledTime *string `json:"scheduled_time"`
        Timezone      string  `json:"timezone"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    if body.Title == "" {
        http.Error(w, "title is required", http.StatusBadRequest)
        return
    }
    if body.Audience != "" && !model.ValidAudience(body.Audience) {
        http.Error(w, "unknown audience selector", http.StatusBadRequest)
        return
    }

    b := &model.Broadcast{
        Title:       body.Title,
        Subject:     body.Subject,
        Body:        body.Body,
        SenderEmail: body.SenderEmail,
        Audience:    body.Audience,
    }

    if body.ScheduledTime != nil && *body.ScheduledTime != "" {
        t, err := service.ParseScheduledTime(*body.ScheduledTime, body.Timezone)
        if err != nil {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        b.ScheduledTime = &t
    }

    if err := c.BroadcastService.CreateBroadcast(b); err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(b)
}

func (c *BroadcastController) ListBroadcasts(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    audience := r.URL.Query().Get("audience")
    status := r.URL.Query().Get("status")

    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }

    broadcasts, pagination, err := c.BroadcastService.ListBroadcasts(page, pageSize, audience, status)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "data":       broadcasts,
        "pagination": pagination,
    })
}

func (c *BroadcastController) GetBroadcastDetails(w http.ResponseWriter, r *http.Request) {
    id, _ := strconv.Atoi(chi.URLParam(r, "id"))

    details, err := c.BroadcastService.GetBroadcastDetails(id)
    if err != nil {
        var notFound *apperr.ErrBroadcastNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(details)
}

func (c *BroadcastController) SendBroadcast(w http.ResponseWriter, r *http.Request) {
    id, _ := strconv.Atoi(chi.URLParam(r, "id"))

    var body struct {
        Recipients []string `json:"recipients"`
    }
    // Body is optional; an empty send request just uses the audience.
    _ = json.NewDecoder(r.Body).Decode(&body)

    result, err := c.BroadcastService.ScheduleOrDispatch(id, body.Recipients)
    c.writeDispatchResult(w, result, err)
}

func (c *BroadcastController) ResendBroadcast(w http.ResponseWriter, r *http.Request) {
    id, _ := strconv.Atoi(chi.URLParam(r, "id"))

    var body struct {
        Recipients []string `json:"recipients"`
    }
    _ = json.NewDecoder(r.Body).Decode(&body)

    result, err := c.BroadcastService.Resend(id, body.Recipients)
    c.writeDispatchResult(w, result, err)
}

func (c *BroadcastController) writeDispatchResult(w http.ResponseWriter, result *service.DispatchResult, err error) {
    if err != nil {
        var notFound *apperr.ErrBroadcastNotFound
        var unknown *apperr.ErrUnknownAudience
        switch {
        case errors.As(err, &notFound):
            http.Error(w, err.Error(), http.StatusNotFound)
        case errors.As(err, &unknown):
            http.Error(w, err.Error(), http.StatusBadRequest)
        case errors.Is(err, apperr.ErrNoRecipients):
            // The failed status has already been recorded; tell the
            // admin why nothing went out.
            json.NewEncoder(w).Encode(map[string]interface{}{
                "result": result,
                "error":  err.Error(),
            })
        case errors.Is(err, apperr.ErrAlreadyDispatched), errors.Is(err, apperr.ErrInvalidTransition):
            http.Error(w, err.Error(), http.StatusConflict)
        default:
            http.Error(w, err.Error(), http.StatusInternalServerError)
        }
        return
    }
    json.NewEncoder(w).Encode(result)
}

// PreviewAudience mirrors the admin form's recipient preview: resolve
// the selector and return the sorted addresses.
func (c *BroadcastController) PreviewAudience(w http.ResponseWriter, r *http.Request) {
    audience := chi.URLParam(r, "audience")

    emails, err := c.Resolver.Resolve(audience)
    if err != nil {
        var unknown *apperr.ErrUnknownAudience
        if errors.As(err, &unknown) {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    json.NewEncoder(w).Encode(map[string]interface{}{
        "audience": audience,
        "count":    len(emails),
        "emails":   emails,
    })
}
