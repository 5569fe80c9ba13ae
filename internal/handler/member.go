package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-membership/internal/middleware"
	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/repository"
	"github.com/iliyamo/club-membership/internal/service"
)

const (
	defaultTxLimit = 20
	maxTxLimit     = 100
)

// MemberHandler serves the authenticated member's own resources: RSVP
// admission, RSVP history, token wallet and profile bootstrap. All methods
// assume JWTAuth has run.
type MemberHandler struct {
	Admission *service.AdmissionService
	Members   *repository.MemberRepo
	RSVPs     *repository.RSVPRepo
	Ledger    *repository.LedgerRepo
}

// NewMemberHandler constructs a MemberHandler. All dependencies must be non-nil.
func NewMemberHandler(a *service.AdmissionService, m *repository.MemberRepo, r *repository.RSVPRepo, l *repository.LedgerRepo) *MemberHandler {
	return &MemberHandler{Admission: a, Members: m, RSVPs: r, Ledger: l}
}

type rsvpRequest struct {
	EventID string `json:"eventId"`
}

// CreateRSVP handles POST /v1/member/rsvps. It runs the admission
// transaction for the caller and returns 201 with the resulting status
// and waitlist position. Business rejections map to 404, 409 and 402.
func (h *MemberHandler) CreateRSVP(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req rsvpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId is required"})
	}

	res, err := h.Admission.RequestAdmission(c.Request().Context(), req.EventID, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, service.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, service.ErrAlreadyBooked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you have already rsvped to this event"})
		case errors.Is(err, service.ErrInsufficientTokens):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "insufficient tokens"})
		}
		c.Logger().Errorf("rsvp transaction event=%s user=%s: %v", req.EventID, uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to rsvp"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":          true,
		"status":           res.Status,
		"waitlistPosition": res.WaitlistPosition,
	})
}

// ListRSVPs handles GET /v1/member/rsvps and returns the caller's RSVPs.
func (h *MemberHandler) ListRSVPs(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.RSVPs.ListByUser(c.Request().Context(), uid)
	if err != nil {
		c.Logger().Errorf("list rsvps for %s: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rsvps"})
	}
	out := make([]rsvpView, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRSVPView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"rsvps": out})
}

// Tokens handles GET /v1/member/tokens?limit=N. It returns the caller's
// balance and the newest N ledger rows (default 20, at most 100).
func (h *MemberHandler) Tokens(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := defaultTxLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxTxLimit)
	}
	ctx := c.Request().Context()
	var balance int64
	m, err := h.Members.Get(ctx, uid)
	switch {
	case err == nil:
		balance = m.TokenBalance
	case errors.Is(err, repository.ErrNotFound):
		// no profile yet: zero balance, empty history
	default:
		c.Logger().Errorf("load member %s: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load balance"})
	}
	rows, err := h.Ledger.ListByUser(ctx, uid, limit)
	if err != nil {
		c.Logger().Errorf("list transactions for %s: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load transactions"})
	}
	txs := make([]transactionView, 0, len(rows))
	for _, t := range rows {
		txs = append(txs, toTransactionView(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance, "transactions": txs})
}

type profileRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	PhotoURL  *string `json:"photoURL"`
}

// EnsureProfile handles POST /v1/member/profile. On first login it creates
// the member row from the verified identity (MEMBER, zero balance) and
// returns 201; afterwards it only refreshes updatedAt and returns 200.
func (h *MemberHandler) EnsureProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
	}
	ctx := c.Request().Context()
	email, _ := c.Get(middleware.CtxEmail).(string)

	status := http.StatusOK
	err = h.Members.Create(ctx, model.Member{
		UID:       uid,
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		PhotoURL:  req.PhotoURL,
		Role:      model.RoleMember,
		IsActive:  true,
	})
	switch {
	case err == nil:
		status = http.StatusCreated
	case errors.Is(err, repository.ErrConflict):
		if err := h.Members.Touch(ctx, uid); err != nil {
			return notFoundOr(c, err, "user not found", "failed to update profile")
		}
	default:
		c.Logger().Errorf("create member %s: %v", uid, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create profile"})
	}
	m, err := h.Members.Get(ctx, uid)
	if err != nil {
		return notFoundOr(c, err, "user not found", "failed to load profile")
	}
	return c.JSON(status, toMemberView(m))
}
