package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/database"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

const sessionKey = "db_session"

// SessionDeps carries the storage handles the session middleware chooses
// between. Exactly one of DB or Exec is consulted, depending on Backend.
type SessionDeps struct {
	Backend database.Backend
	DB      *gorm.DB
	Exec    store.Executor
}

// SessionProvider returns an Echo middleware that opens a storage session
// for each request, stores it in the context and closes it when the request
// finishes. Handlers never learn which backend is live; they fetch the
// session with SessionFrom and speak the store.Session contract.
func SessionProvider(deps SessionDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sess store.Session
			switch deps.Backend {
			case database.BackendServerless:
				if deps.Exec == nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database not available"})
				}
				sess = store.NewD1Session(deps.Exec)
			default:
				if deps.DB == nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database not available"})
				}
				sess = store.NewGormSession(deps.DB)
			}
			c.Set(sessionKey, sess)
			defer sess.Close()
			return next(c)
		}
	}
}

// SessionFrom retrieves the request's storage session. It panics when the
// provider middleware did not run, which is a wiring bug.
func SessionFrom(c echo.Context) store.Session {
	sess, ok := c.Get(sessionKey).(store.Session)
	if !ok {
		panic("middleware: no database session in context")
	}
	return sess
}
