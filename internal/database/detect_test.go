package database

import (
	"testing"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
)

func TestResolveBackend(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want Backend
	}{
		{
			name: "default is conventional",
			cfg:  config.Config{DatabaseURL: "postgresql://localhost/app"},
			want: BackendConventional,
		},
		{
			name: "workers marker wins",
			cfg:  config.Config{CloudflareWorkers: true, DatabaseURL: "postgresql://localhost/app"},
			want: BackendServerless,
		},
		{
			name: "complete d1 credentials",
			cfg: config.Config{
				D1AccountID:  "acct",
				D1DatabaseID: "db",
				D1APIToken:   "token",
				DatabaseURL:  "postgresql://localhost/app",
			},
			want: BackendServerless,
		},
		{
			name: "partial d1 credentials do not count",
			cfg: config.Config{
				D1AccountID: "acct",
				DatabaseURL: "postgresql://localhost/app",
			},
			want: BackendConventional,
		},
		{
			name: "sqlite dsn means serverless",
			cfg:  config.Config{DatabaseURL: "sqlite:///local.db"},
			want: BackendServerless,
		},
	}

	for _, tc := range cases {
		if got := ResolveBackend(tc.cfg); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
