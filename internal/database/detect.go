package database

import (
	"strings"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
)

// Backend identifies which storage engine the process talks to.
type Backend string

const (
	// BackendConventional is PostgreSQL through the ORM.
	BackendConventional Backend = "postgresql"
	// BackendServerless is Cloudflare D1 through prepared statements.
	BackendServerless Backend = "d1"
)

// ResolveBackend picks the storage engine from the environment. The checks
// run in priority order: an explicit Workers platform marker wins, then a
// complete set of D1 REST credentials, then a sqlite-style DSN. Anything
// else is a conventional deployment.
func ResolveBackend(cfg config.Config) Backend {
	if cfg.CloudflareWorkers {
		return BackendServerless
	}
	if cfg.HasD1Credentials() {
		return BackendServerless
	}
	if strings.HasPrefix(cfg.DatabaseURL, "sqlite:") {
		return BackendServerless
	}
	return BackendConventional
}
