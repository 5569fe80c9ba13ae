package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/repository"
)

var eventCategories = map[string]bool{
	"WEEKLY_SPORTS":   true,
	"MONTHLY_EVENTS":  true,
	"FEATURED_EVENTS": true,
}

var eventStatuses = map[string]bool{
	model.EventDraft:     true,
	model.EventPublished: true,
	model.EventCancelled: true,
	model.EventCompleted: true,
}

// EventHandler serves event listings and admin event creation.
type EventHandler struct {
	Events *repository.EventRepo
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

// ListPublic handles GET /v1/events: published, public events by start time.
func (h *EventHandler) ListPublic(c echo.Context) error {
	return h.list(c, true)
}

// ListAll handles GET /v1/admin/events: every event regardless of status.
func (h *EventHandler) ListAll(c echo.Context) error {
	return h.list(c, false)
}

func (h *EventHandler) list(c echo.Context, visibleOnly bool) error {
	rows, err := h.Events.List(c.Request().Context(), visibleOnly)
	if err != nil {
		c.Logger().Errorf("list events: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list events"})
	}
	out := make([]eventView, 0, len(rows))
	for _, e := range rows {
		out = append(out, toEventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// Get handles GET /v1/events/:id. Hidden events are 404 for non-admins.
func (h *EventHandler) Get(c echo.Context) error {
	e, err := h.Events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFoundOr(c, err, "event not found", "failed to get event")
	}
	if !isAdmin(getRole(c)) && (!e.IsPublic || e.Status != model.EventPublished) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, toEventView(e))
}

type createEventRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Category       string  `json:"category"`
	SportID        string  `json:"sportId"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	Capacity       int64   `json:"capacity"`
	TokensRequired int64   `json:"tokensRequired"`
	Status         string  `json:"status"`
	IsPublic       bool    `json:"isPublic"`
}

// validateEvent returns the first problem with the editable fields of e, or
// "" when they are acceptable.
func validateEvent(e model.Event) string {
	switch {
	case e.Title == "" || e.SportID == "":
		return "missing required fields"
	case !e.EndTime.After(e.StartTime):
		return "endTime must be after startTime"
	case e.Capacity <= 0:
		return "capacity must be a positive integer"
	case e.TokensRequired < 0:
		return "tokensRequired must not be negative"
	case !eventCategories[e.Category]:
		return "unknown category"
	case !eventStatuses[e.Status]:
		return "unknown status"
	}
	return ""
}

// Create handles POST /v1/admin/events. title, sportId, startTime and
// endTime are required; capacity must be positive and tokensRequired
// non-negative. Counters always start at zero.
func (h *EventHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StartTime == "" || req.EndTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endTime must be RFC3339"})
	}
	if req.Category == "" {
		req.Category = "WEEKLY_SPORTS"
	}
	if req.Status == "" {
		req.Status = model.EventDraft
	}
	ev := model.Event{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Category:       req.Category,
		SportID:        strings.TrimSpace(req.SportID),
		StartTime:      start.UTC(),
		EndTime:        end.UTC(),
		Capacity:       req.Capacity,
		TokensRequired: req.TokensRequired,
		Status:         req.Status,
		IsPublic:       req.IsPublic,
		CreatedBy:      &uid,
	}
	if msg := validateEvent(ev); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	e, err := h.Events.Create(c.Request().Context(), ev)
	if err != nil {
		c.Logger().Errorf("create event: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, toEventView(e))
}

// updateEventRequest carries a partial update; absent fields keep their
// stored value.
type updateEventRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Category       *string `json:"category"`
	SportID        *string `json:"sportId"`
	StartTime      *string `json:"startTime"`
	EndTime        *string `json:"endTime"`
	Capacity       *int64  `json:"capacity"`
	TokensRequired *int64  `json:"tokensRequired"`
	Status         *string `json:"status"`
	IsPublic       *bool   `json:"isPublic"`
}

// Update handles PUT /v1/admin/events/:id. Confirmed and waitlist counters
// cannot be edited; lowering capacity below the confirmed count is a 409.
func (h *EventHandler) Update(c echo.Context) error {
	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	e, err := h.Events.Get(ctx, c.Param("id"))
	if err != nil {
		return notFoundOr(c, err, "event not found", "failed to load event")
	}

	if req.Title != nil {
		e.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		e.Description = req.Description
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.SportID != nil {
		e.SportID = strings.TrimSpace(*req.SportID)
	}
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime must be RFC3339"})
		}
		e.StartTime = t.UTC()
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "endTime must be RFC3339"})
		}
		e.EndTime = t.UTC()
	}
	if req.Capacity != nil {
		e.Capacity = *req.Capacity
	}
	if req.TokensRequired != nil {
		e.TokensRequired = *req.TokensRequired
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.IsPublic != nil {
		e.IsPublic = *req.IsPublic
	}
	if msg := validateEvent(e); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	switch err := h.Events.Update(ctx, e); {
	case err == nil:
	case errors.Is(err, repository.ErrCapacityBelowConfirmed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity is below the confirmed count"})
	default:
		return notFoundOr(c, err, "event not found", "failed to update event")
	}
	updated, err := h.Events.Get(ctx, e.ID)
	if err != nil {
		return notFoundOr(c, err, "event not found", "failed to load event")
	}
	return c.JSON(http.StatusOK, toEventView(updated))
}

// Delete handles DELETE /v1/admin/events/:id. Events with confirmed or
// waitlisted members are a 409; set their status to CANCELLED instead.
func (h *EventHandler) Delete(c echo.Context) error {
	err := h.Events.Delete(c.Request().Context(), c.Param("id"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "event deleted"})
	case errors.Is(err, repository.ErrEventHasRSVPs):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event has rsvps; cancel it instead"})
	}
	return notFoundOr(c, err, "event not found", "failed to delete event")
}
