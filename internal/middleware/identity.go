package middleware

import "github.com/labstack/echo/v4"

// currentUserID returns the verified uid stored by JWTAuth, or "anon" for
// unauthenticated requests. It is used to build rate limit keys.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
