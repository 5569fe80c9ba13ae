package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/repository"
	"github.com/iliyamo/club-membership/internal/service"
)

// AdminHandler serves admin-only views of RSVPs and members. Routes are
// guarded by RequireRole(ADMIN, SUPER_ADMIN); role changes additionally
// require SUPER_ADMIN.
type AdminHandler struct {
	RSVPs   *repository.RSVPRepo
	Members *repository.MemberRepo
	Ledger  *service.LedgerService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(r *repository.RSVPRepo, m *repository.MemberRepo, l *service.LedgerService) *AdminHandler {
	return &AdminHandler{RSVPs: r, Members: m, Ledger: l}
}

// ListEventRSVPs handles GET /v1/admin/rsvps?eventId=... and returns every
// RSVP for the event, newest first, with the member's display fields.
func (h *AdminHandler) ListEventRSVPs(c echo.Context) error {
	eventID := strings.TrimSpace(c.QueryParam("eventId"))
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId is required"})
	}
	rows, err := h.RSVPs.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		c.Logger().Errorf("list rsvps for event %s: %v", eventID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rsvps"})
	}
	out := make([]rsvpView, 0, len(rows))
	for _, row := range rows {
		v := toRSVPView(row.RSVP)
		if row.Member != nil {
			v.User = &attendeeView{
				FirstName: row.Member.FirstName,
				LastName:  row.Member.LastName,
				Email:     row.Member.Email,
				PhotoURL:  row.Member.PhotoURL,
			}
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"rsvps": out})
}

// ListUsers handles GET /v1/admin/users and returns every member, newest
// first.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	rows, err := h.Members.List(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list users: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	out := make([]memberView, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMemberView(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// GetUser handles GET /v1/admin/users/:uid.
func (h *AdminHandler) GetUser(c echo.Context) error {
	m, err := h.Members.Get(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return notFoundOr(c, err, "user not found", "failed to load user")
	}
	return c.JSON(http.StatusOK, toMemberView(m))
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole handles PUT /v1/admin/users/:uid/role. Only SUPER_ADMIN may
// change roles.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	if getRole(c) != model.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	uid := c.Param("uid")
	if err := h.Members.UpdateRole(c.Request().Context(), uid, req.Role); err != nil {
		return notFoundOr(c, err, "user not found", "failed to update role")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "uid": uid, "role": req.Role})
}

type creditRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// CreditTokens handles POST /v1/admin/users/:uid/tokens. It stands in for
// a token purchase: the balance grows by amount and a CREDIT row is
// appended in one transaction.
func (h *AdminHandler) CreditTokens(c echo.Context) error {
	var req creditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = "Token purchase"
	}
	balance, row, err := h.Ledger.Credit(c.Request().Context(), c.Param("uid"), req.Amount, desc)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		c.Logger().Errorf("credit tokens: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to credit tokens"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"balance":     balance,
		"transaction": toTransactionView(row),
	})
}
