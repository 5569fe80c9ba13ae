package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/club-membership/internal/config"
	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/utils"
)

const testSecret = "test-secret"

func serve(t *testing.T, auth string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/member/rsvps", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, c
}

func bearer(t *testing.T, uid, role string) string {
	t.Helper()

	tok, err := utils.NewAccessToken(testSecret, uid, role, uid+"@club.test", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok.Token
}

func TestJWTAuthSetsIdentity(t *testing.T) {
	t.Parallel()

	rec, c := serve(t, bearer(t, "alice", model.RoleMember), JWTAuth(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := c.Get(CtxUserID); got != "alice" {
		t.Fatalf("user_id = %v, want alice", got)
	}
	if got := c.Get(CtxRole); got != model.RoleMember {
		t.Fatalf("role = %v, want MEMBER", got)
	}
	if got := c.Get(CtxEmail); got != "alice@club.test" {
		t.Fatalf("email = %v", got)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	t.Parallel()

	other, err := utils.NewAccessToken("other-secret", "alice", model.RoleMember, "", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	tests := []struct {
		name string
		auth string
	}{
		{name: "missing header", auth: ""},
		{name: "not bearer", auth: "Basic abc"},
		{name: "garbage token", auth: "Bearer not-a-jwt"},
		{name: "wrong secret", auth: "Bearer " + other.Token},
	}
	for _, tt := range tests {
		rec, _ := serve(t, tt.auth, JWTAuth(testSecret))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tt.name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := RequireRole(model.RoleAdmin, model.RoleSuperAdmin)

	rec, _ := serve(t, bearer(t, "bob", model.RoleMember), JWTAuth(testSecret), admin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member status = %d, want 403", rec.Code)
	}
	rec, _ = serve(t, bearer(t, "root", model.RoleSuperAdmin), JWTAuth(testSecret), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("super admin status = %d, want 200", rec.Code)
	}
	rec, _ = serve(t, "", admin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous status = %d, want 403", rec.Code)
	}
}

func TestMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	t.Parallel()

	rl := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour}
	cache := config.CacheConfig{Enabled: true, Methods: []string{"GET"}}
	for i := 0; i < 3; i++ {
		rec, _ := serve(t, "", NewTokenBucket(rl, nil), NewRedisCache(cache, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
		if rec.Header().Get("X-Cache") != "" {
			t.Fatalf("request %d: unexpected X-Cache header", i)
		}
	}
}

func TestBuildRateKey(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/member/rsvps", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/member/rsvps")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	if got, want := buildRateKey(cfg, c), "rl:user:anon:route:POST /v1/member/rsvps"; got != want {
		t.Fatalf("anonymous key = %q, want %q", got, want)
	}
	c.Set(CtxUserID, "alice")
	if got, want := buildRateKey(cfg, c), "rl:user:alice:route:POST /v1/member/rsvps"; got != want {
		t.Fatalf("user key = %q, want %q", got, want)
	}
	cfg.KeyStrategy = "ip"
	if got, want := buildRateKey(cfg, c), "rl:ip:10.0.0.7"; got != want {
		t.Fatalf("ip key = %q, want %q", got, want)
	}
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	t.Parallel()

	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/events")
		return cacheKey(config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}, c)
	}
	a, b := key("/v1/events"), key("/v1/events?sport=futsal")
	if a == b {
		t.Fatalf("keys collide: %s", a)
	}
	if !strings.HasPrefix(a, "cache:") {
		t.Fatalf("key %q missing prefix", a)
	}
}

func TestDecodeEntryRejectsTruncatedInput(t *testing.T) {
	t.Parallel()

	entry, err := encodeEntry(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"events":[]}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, hdr, body, ok := decodeEntry(entry)
	if !ok || status != http.StatusOK || hdr.Get("Content-Type") != "application/json" || string(body) != `{"events":[]}` {
		t.Fatalf("decode = %d %v %q %v", status, hdr, body, ok)
	}
	if _, _, _, ok := decodeEntry(entry[:10]); ok {
		t.Fatal("truncated entry decoded")
	}
}
