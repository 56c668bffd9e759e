package middleware

// identity.go defines helper functions shared across middleware files. The
// rate limit and cache key strategies use userID to segment keys per
// authenticated user.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID extracts the authenticated user identifier from the context. It
// returns "guest" when no user is authenticated.
func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(int64); ok {
		return strconv.FormatInt(v, 10)
	}
	return "guest"
}
