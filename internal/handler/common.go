package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-membership/internal/middleware"
	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/repository"
)

var errNoIdentity = errors.New("no authenticated user")

// getUserID returns the verified uid stored by the JWT middleware.
func getUserID(c echo.Context) (string, error) {
	uid, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || uid == "" {
		return "", errNoIdentity
	}
	return uid, nil
}

func getRole(c echo.Context) string {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role
}

func isAdmin(role string) bool {
	return role == model.RoleAdmin || role == model.RoleSuperAdmin
}

func iso(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// memberView is the JSON shape of a member profile.
type memberView struct {
	UID          string  `json:"uid"`
	Email        string  `json:"email"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	PhotoURL     *string `json:"photoURL"`
	Role         string  `json:"role"`
	TokenBalance int64   `json:"tokenBalance"`
	IsActive     bool    `json:"isActive"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func toMemberView(m model.Member) memberView {
	return memberView{
		UID:          m.UID,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PhotoURL:     m.PhotoURL,
		Role:         m.Role,
		TokenBalance: m.TokenBalance,
		IsActive:     m.IsActive,
		CreatedAt:    iso(m.CreatedAt),
		UpdatedAt:    iso(m.UpdatedAt),
	}
}

// eventView is the JSON shape of an event.
type eventView struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Category       string  `json:"category"`
	SportID        string  `json:"sportId"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	Capacity       int64   `json:"capacity"`
	TokensRequired int64   `json:"tokensRequired"`
	ConfirmedCount int64   `json:"confirmedCount"`
	WaitlistCount  int64   `json:"waitlistCount"`
	Status         string  `json:"status"`
	IsPublic       bool    `json:"isPublic"`
	CreatedBy      *string `json:"createdBy"`
	CreatedAt      string  `json:"createdAt"`
}

func toEventView(e model.Event) eventView {
	return eventView{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Category:       e.Category,
		SportID:        e.SportID,
		StartTime:      iso(e.StartTime),
		EndTime:        iso(e.EndTime),
		Capacity:       e.Capacity,
		TokensRequired: e.TokensRequired,
		ConfirmedCount: e.ConfirmedCount,
		WaitlistCount:  e.WaitlistCount,
		Status:         e.Status,
		IsPublic:       e.IsPublic,
		CreatedBy:      e.CreatedBy,
		CreatedAt:      iso(e.CreatedAt),
	}
}

// rsvpView is the JSON shape of an RSVP. User is only set on admin listings.
type rsvpView struct {
	ID               string        `json:"id"`
	EventID          string        `json:"eventId"`
	UserID           string        `json:"userId"`
	Status           string        `json:"status"`
	WaitlistPosition *int64        `json:"waitlistPosition"`
	Attended         bool          `json:"attended"`
	CreatedAt        string        `json:"createdAt"`
	UpdatedAt        string        `json:"updatedAt"`
	User             *attendeeView `json:"user,omitempty"`
}

type attendeeView struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	PhotoURL  *string `json:"photoURL"`
}

func toRSVPView(r model.RSVP) rsvpView {
	return rsvpView{
		ID:               r.ID,
		EventID:          r.EventID,
		UserID:           r.UserID,
		Status:           r.Status,
		WaitlistPosition: r.WaitlistPosition,
		Attended:         r.Attended,
		CreatedAt:        iso(r.CreatedAt),
		UpdatedAt:        iso(r.UpdatedAt),
	}
}

// transactionView is the JSON shape of a ledger row.
type transactionView struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Description *string `json:"description"`
	EventID     *string `json:"eventId"`
	CreatedAt   string  `json:"createdAt"`
}

func toTransactionView(t model.TokenTransaction) transactionView {
	return transactionView{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		EventID:     t.EventID,
		CreatedAt:   iso(t.CreatedAt),
	}
}

// notFoundOr maps repository.ErrNotFound to 404 with msg and anything else
// to 500 with fallback.
func notFoundOr(c echo.Context, err error, msg, fallback string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
	}
	c.Logger().Errorf("%s: %v", fallback, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
