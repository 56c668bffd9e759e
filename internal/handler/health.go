package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers load balancer probes. It deliberately touches nothing,
// so it stays green even while the database is being provisioned.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
