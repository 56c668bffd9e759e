package model

import (
	"time"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// Halqa is a study circle grouping participants under one supervisor.
// Supervisor and Members are attached by the handlers after separate
// lookups; neither backend touches them.
type Halqa struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	SupervisorID *int64    `json:"supervisor_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Supervisor *User   `gorm:"-" json:"-"`
	Members    []*User `gorm:"-" json:"-"`
}

func (h *Halqa) TableName() string { return "halqas" }

func (h *Halqa) GetID() int64 { return h.ID }

func (h *Halqa) SetID(id int64) { h.ID = id }

func (h *Halqa) ColumnNames() []string {
	return []string{"name", "supervisor_id", "created_at", "updated_at"}
}

func (h *Halqa) ColumnValues() []any {
	return []any{h.Name, h.SupervisorID, h.CreatedAt, h.UpdatedAt}
}

func (h *Halqa) LoadRow(row store.Row) {
	h.ID = store.RowInt64(row, "id")
	h.Name = store.RowString(row, "name")
	h.SupervisorID = store.RowInt64Ptr(row, "supervisor_id")
	h.CreatedAt = store.RowTime(row, "created_at")
	h.UpdatedAt = store.RowTime(row, "updated_at")
}

// maleGenderValues covers both the English and Arabic spellings accepted at
// registration time.
var maleGenderValues = map[string]bool{"male": true, "ذكر": true}

// Response builds the JSON shape the frontend expects. Member counts cover
// active members only and require Members to have been attached.
func (h *Halqa) Response() map[string]any {
	var memberCount, maleCount int
	for _, m := range h.Members {
		if m.Status != StatusActive {
			continue
		}
		memberCount++
		if maleGenderValues[m.Gender] {
			maleCount++
		}
	}
	data := map[string]any{
		"id":              h.ID,
		"name":            h.Name,
		"supervisor_id":   h.SupervisorID,
		"supervisor_name": nil,
		"member_count":    memberCount,
		"male_count":      maleCount,
		"female_count":    memberCount - maleCount,
		"created_at":      formatTime(h.CreatedAt),
	}
	if h.Supervisor != nil {
		data["supervisor_name"] = h.Supervisor.FullName
	}
	return data
}
