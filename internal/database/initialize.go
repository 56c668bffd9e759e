package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/utils"
)

// Report describes what an initialization run did. It is returned verbatim
// from the initialize endpoint so operators can see each step's outcome.
type Report struct {
	Success           bool     `json:"success"`
	DatabaseType      string   `json:"database_type"`
	TablesCreated     bool     `json:"tables_created"`
	MigrationsApplied []string `json:"migrations_applied"`
	SettingsCreated   bool     `json:"settings_created"`
	AdminCreated      bool     `json:"admin_created"`
	UsersBackfilled   int      `json:"users_backfilled"`
	Errors            []string `json:"errors"`
}

func newReport(backend Backend) Report {
	return Report{
		DatabaseType:      string(backend),
		MigrationsApplied: []string{},
		Errors:            []string{},
	}
}

func (r *Report) fail(step string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", step, err))
	r.Success = false
}

// Initialize provisions the conventional backend: missing tables, additive
// column migrations, the settings singleton, member id backfill and the
// seed super admin. It is idempotent and safe to call repeatedly.
func Initialize(db *gorm.DB, cfg config.Config) Report {
	report := newReport(BackendConventional)
	m := db.Migrator()

	// Step 1: create missing tables. Existing tables are left untouched.
	models := []any{&model.User{}, &model.Halqa{}, &model.DailyCard{}, &model.SiteSettings{}}
	for _, mdl := range models {
		if m.HasTable(mdl) {
			continue
		}
		if err := m.CreateTable(mdl); err != nil {
			report.fail("create tables", err)
			return report
		}
	}
	report.TablesCreated = true

	// Step 2: additive column migrations for databases created before the
	// column existed. Dropping columns is never done here.
	type migration struct {
		name   string
		model  any
		column string
	}
	for _, mig := range []migration{
		{"add_member_id_to_users", &model.User{}, "member_id"},
		{"add_updated_at_to_halqas", &model.Halqa{}, "updated_at"},
		{"add_tadabbur_to_daily_cards", &model.DailyCard{}, "tadabbur"},
		{"add_required_lesson_to_daily_cards", &model.DailyCard{}, "required_lesson"},
	} {
		if m.HasColumn(mig.model, mig.column) {
			continue
		}
		if err := m.AddColumn(mig.model, mig.column); err != nil {
			report.fail(mig.name, err)
			return report
		}
		report.MigrationsApplied = append(report.MigrationsApplied, mig.name)
	}

	// Step 3: settings singleton.
	var settingsCount int64
	if err := db.Model(&model.SiteSettings{}).Count(&settingsCount).Error; err != nil {
		report.fail("settings", err)
		return report
	}
	if settingsCount == 0 {
		if err := db.Create(&model.SiteSettings{EnableEmailNotifications: cfg.EnableEmailNotifications}).Error; err != nil {
			report.fail("settings", err)
			return report
		}
		report.SettingsCreated = true
	}

	// Step 4: backfill member ids for users approved before the numbering
	// scheme existed, in id order so earlier users get lower numbers.
	var missing []*model.User
	if err := db.Where("member_id IS NULL").Order("id").Find(&missing).Error; err != nil {
		report.fail("backfill", err)
		return report
	}
	if len(missing) > 0 {
		next, err := NextMemberID(db)
		if err != nil {
			report.fail("backfill", err)
			return report
		}
		for _, u := range missing {
			mid := next
			u.MemberID = &mid
			if err := db.Model(u).Update("member_id", mid).Error; err != nil {
				report.fail("backfill", err)
				return report
			}
			next++
		}
		report.UsersBackfilled = len(missing)
	}

	// Step 5: seed super admin. The conflict clause makes concurrent
	// initialization calls race-safe on the unique email index.
	adminEmail := strings.ToLower(cfg.SuperAdminEmail)
	var adminCount int64
	if err := db.Model(&model.User{}).Where("email = ?", adminEmail).Count(&adminCount).Error; err != nil {
		report.fail("admin", err)
		return report
	}
	if adminCount == 0 {
		hash, err := utils.HashPassword(cfg.SuperAdminPassword, cfg.BcryptCost)
		if err != nil {
			report.fail("admin", err)
			return report
		}
		now := time.Now().UTC()
		admin := &model.User{
			FullName:     "Super Admin",
			Gender:       "male",
			Age:          30,
			Phone:        "0000000000",
			Email:        adminEmail,
			PasswordHash: hash,
			Country:      "--",
			Status:       model.StatusActive,
			Role:         model.RoleSuperAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(admin)
		if res.Error != nil {
			report.fail("admin", res.Error)
			return report
		}
		report.AdminCreated = res.RowsAffected > 0
	}

	report.Success = true
	return report
}

// IsInitialized reports whether the conventional backend has been fully
// provisioned: the seed super admin exists and no additive migration is
// pending.
func IsInitialized(db *gorm.DB, cfg config.Config) bool {
	m := db.Migrator()
	if !m.HasTable(&model.User{}) {
		return false
	}
	if !m.HasColumn(&model.DailyCard{}, "tadabbur") || !m.HasColumn(&model.DailyCard{}, "required_lesson") {
		return false
	}
	var count int64
	err := db.Model(&model.User{}).
		Where("email = ? AND role = ?", strings.ToLower(cfg.SuperAdminEmail), model.RoleSuperAdmin).
		Count(&count).Error
	return err == nil && count > 0
}

// NextMemberID returns the next free membership number: one past the current
// maximum, or the numbering floor when none has been assigned yet.
func NextMemberID(db *gorm.DB) (int64, error) {
	var max *int64
	if err := db.Model(&model.User{}).Select("MAX(member_id)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return MemberIDStart, nil
	}
	return *max + 1, nil
}
