package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/utils"
)

// InitializeD1 provisions the serverless backend from scratch: it drops and
// recreates every table, builds the indexes and seeds the settings row and
// the super admin. Callers must gate it behind IsInitializedD1, since a
// repeat run wipes existing data.
func InitializeD1(ctx context.Context, exec store.Executor, cfg config.Config) Report {
	report := newReport(BackendServerless)

	if err := exec.ExecuteBatch(ctx, toStatements(dropTableStatements)); err != nil {
		report.fail("drop tables", err)
		return report
	}
	if err := exec.ExecuteBatch(ctx, toStatements(createTableStatements)); err != nil {
		report.fail("create tables", err)
		return report
	}
	report.TablesCreated = true

	if err := exec.ExecuteBatch(ctx, toStatements(createIndexStatements)); err != nil {
		report.fail("create indexes", err)
		return report
	}

	enabled := 0
	if cfg.EnableEmailNotifications {
		enabled = 1
	}
	if _, err := exec.Execute(ctx, store.Statement{
		SQL:    "INSERT INTO site_settings (enable_email_notifications) VALUES (?)",
		Params: []any{enabled},
	}); err != nil {
		report.fail("settings", err)
		return report
	}
	report.SettingsCreated = true

	hash, err := utils.HashPassword(cfg.SuperAdminPassword, cfg.BcryptCost)
	if err != nil {
		report.fail("admin", err)
		return report
	}
	res, err := exec.Execute(ctx, store.Statement{
		SQL: `INSERT OR IGNORE INTO users (
			full_name, email, password_hash, role, status,
			gender, age, country, phone
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		Params: []any{
			"Super Admin", strings.ToLower(cfg.SuperAdminEmail), hash,
			model.RoleSuperAdmin, model.StatusActive,
			"male", 30, "--", "0000000000",
		},
	})
	if err != nil {
		report.fail("admin", err)
		return report
	}
	report.AdminCreated = res.RowsAffected > 0

	report.Success = true
	return report
}

// IsInitializedD1 reports whether the serverless backend is provisioned.
// The seed super admin row is the sole signal: a database created before a
// score column existed is still initialized, it just needs the additive
// migration, which the probe applies before answering. A missing column
// must never route callers to the destructive InitializeD1 path. The
// second return value lists the migrations the probe applied.
func IsInitializedD1(ctx context.Context, exec store.Executor, cfg config.Config) (bool, []string) {
	res, err := exec.Execute(ctx, store.Statement{
		SQL:    "SELECT id FROM users WHERE email = ? AND role = ? LIMIT 1",
		Params: []any{strings.ToLower(cfg.SuperAdminEmail), model.RoleSuperAdmin},
	})
	if err != nil || len(res.Rows) == 0 {
		return false, nil
	}
	applied, err := MigrateD1DailyCards(ctx, exec)
	if err != nil {
		log.Printf("d1: daily card migration incomplete: %v", err)
	}
	return true, applied
}

// MigrateD1DailyCards adds any score columns missing from an existing
// daily_cards table, preserving the data already in it. New columns default
// to zero so historical totals are unchanged.
func MigrateD1DailyCards(ctx context.Context, exec store.Executor) ([]string, error) {
	cols, err := dailyCardColumns(ctx, exec)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}
	var applied []string
	for _, f := range model.ScoreFields {
		if cols[f] {
			continue
		}
		sql := fmt.Sprintf("ALTER TABLE daily_cards ADD COLUMN %s REAL DEFAULT 0", f)
		if _, err := exec.Execute(ctx, store.Statement{SQL: sql}); err != nil {
			return applied, err
		}
		applied = append(applied, "add_"+f+"_to_daily_cards")
	}
	return applied, nil
}

func dailyCardColumns(ctx context.Context, exec store.Executor) (map[string]bool, error) {
	res, err := exec.Execute(ctx, store.Statement{SQL: "PRAGMA table_info(daily_cards)"})
	if err != nil {
		return nil, err
	}
	cols := make(map[string]bool, len(res.Rows))
	for _, row := range res.Rows {
		if name := store.RowString(row, "name"); name != "" {
			cols[name] = true
		}
	}
	return cols, nil
}

func toStatements(sqls []string) []store.Statement {
	stmts := make([]store.Statement, len(sqls))
	for i, s := range sqls {
		stmts[i] = store.Statement{SQL: s}
	}
	return stmts
}
