package model

import "github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"

// SiteSettings is the single-row global configuration table. Exactly one
// row exists, created during database initialization.
type SiteSettings struct {
	ID                       int64 `gorm:"primaryKey" json:"id"`
	EnableEmailNotifications bool  `gorm:"default:true" json:"enable_email_notifications"`
}

func (s *SiteSettings) TableName() string { return "site_settings" }

func (s *SiteSettings) GetID() int64 { return s.ID }

func (s *SiteSettings) SetID(id int64) { s.ID = id }

func (s *SiteSettings) ColumnNames() []string {
	return []string{"enable_email_notifications"}
}

func (s *SiteSettings) ColumnValues() []any {
	return []any{s.EnableEmailNotifications}
}

func (s *SiteSettings) LoadRow(row store.Row) {
	s.ID = store.RowInt64(row, "id")
	s.EnableEmailNotifications = store.RowBool(row, "enable_email_notifications")
}

func (s *SiteSettings) Response() map[string]any {
	return map[string]any{
		"id":                         s.ID,
		"enable_email_notifications": s.EnableEmailNotifications,
	}
}
