package model

import (
	"math"
	"time"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// ScoreFields lists the scored activities on a daily card, in display
// order. Each is worth 0 to 10 points, decimals allowed.
var ScoreFields = []string{
	"quran", "tadabbur", "duas", "taraweeh", "tahajjud", "duha",
	"rawatib", "main_lesson", "required_lesson", "enrichment_lesson",
	"charity_worship", "extra_work",
}

// DailyCard is one participant's scored record for one program day. A
// participant submits at most one card per day, enforced by the unique
// (user_id, date) index on both backends.
type DailyCard struct {
	ID     int64     `gorm:"primaryKey" json:"id"`
	UserID int64     `gorm:"not null;uniqueIndex:idx_user_date" json:"user_id"`
	Date   time.Time `gorm:"type:date;not null;uniqueIndex:idx_user_date" json:"date"`

	Quran            float64 `gorm:"default:0" json:"quran"`
	Tadabbur         float64 `gorm:"default:0" json:"tadabbur"`
	Duas             float64 `gorm:"default:0" json:"duas"`
	Taraweeh         float64 `gorm:"default:0" json:"taraweeh"`
	Tahajjud         float64 `gorm:"default:0" json:"tahajjud"`
	Duha             float64 `gorm:"default:0" json:"duha"`
	Rawatib          float64 `gorm:"default:0" json:"rawatib"`
	MainLesson       float64 `gorm:"default:0" json:"main_lesson"`
	RequiredLesson   float64 `gorm:"default:0" json:"required_lesson"`
	EnrichmentLesson float64 `gorm:"default:0" json:"enrichment_lesson"`
	CharityWorship   float64 `gorm:"default:0" json:"charity_worship"`
	ExtraWork        float64 `gorm:"default:0" json:"extra_work"`

	ExtraWorkDescription *string   `gorm:"type:text" json:"extra_work_description"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (c *DailyCard) TableName() string { return "daily_cards" }

func (c *DailyCard) GetID() int64 { return c.ID }

func (c *DailyCard) SetID(id int64) { c.ID = id }

func (c *DailyCard) ColumnNames() []string {
	return append(append([]string{"user_id", "date"}, ScoreFields...),
		"extra_work_description", "created_at", "updated_at")
}

func (c *DailyCard) ColumnValues() []any {
	vals := []any{c.UserID, c.Date.Format(store.DateLayout)}
	for _, f := range ScoreFields {
		vals = append(vals, c.Score(f))
	}
	return append(vals, c.ExtraWorkDescription, c.CreatedAt, c.UpdatedAt)
}

func (c *DailyCard) LoadRow(row store.Row) {
	c.ID = store.RowInt64(row, "id")
	c.UserID = store.RowInt64(row, "user_id")
	c.Date = store.RowTime(row, "date")
	c.Quran = store.RowFloat(row, "quran")
	c.Tadabbur = store.RowFloat(row, "tadabbur")
	c.Duas = store.RowFloat(row, "duas")
	c.Taraweeh = store.RowFloat(row, "taraweeh")
	c.Tahajjud = store.RowFloat(row, "tahajjud")
	c.Duha = store.RowFloat(row, "duha")
	c.Rawatib = store.RowFloat(row, "rawatib")
	c.MainLesson = store.RowFloat(row, "main_lesson")
	c.RequiredLesson = store.RowFloat(row, "required_lesson")
	c.EnrichmentLesson = store.RowFloat(row, "enrichment_lesson")
	c.CharityWorship = store.RowFloat(row, "charity_worship")
	c.ExtraWork = store.RowFloat(row, "extra_work")
	c.ExtraWorkDescription = store.RowStringPtr(row, "extra_work_description")
	c.CreatedAt = store.RowTime(row, "created_at")
	c.UpdatedAt = store.RowTime(row, "updated_at")
}

// Score returns the value of one named score field.
func (c *DailyCard) Score(field string) float64 {
	switch field {
	case "quran":
		return c.Quran
	case "tadabbur":
		return c.Tadabbur
	case "duas":
		return c.Duas
	case "taraweeh":
		return c.Taraweeh
	case "tahajjud":
		return c.Tahajjud
	case "duha":
		return c.Duha
	case "rawatib":
		return c.Rawatib
	case "main_lesson":
		return c.MainLesson
	case "required_lesson":
		return c.RequiredLesson
	case "enrichment_lesson":
		return c.EnrichmentLesson
	case "charity_worship":
		return c.CharityWorship
	case "extra_work":
		return c.ExtraWork
	}
	return 0
}

// SetScore assigns one named score field. Unknown names are ignored.
func (c *DailyCard) SetScore(field string, v float64) {
	switch field {
	case "quran":
		c.Quran = v
	case "tadabbur":
		c.Tadabbur = v
	case "duas":
		c.Duas = v
	case "taraweeh":
		c.Taraweeh = v
	case "tahajjud":
		c.Tahajjud = v
	case "duha":
		c.Duha = v
	case "rawatib":
		c.Rawatib = v
	case "main_lesson":
		c.MainLesson = v
	case "required_lesson":
		c.RequiredLesson = v
	case "enrichment_lesson":
		c.EnrichmentLesson = v
	case "charity_worship":
		c.CharityWorship = v
	case "extra_work":
		c.ExtraWork = v
	}
}

// TotalScore sums every score field.
func (c *DailyCard) TotalScore() float64 {
	var total float64
	for _, f := range ScoreFields {
		total += c.Score(f)
	}
	return total
}

// MaxScore is the best possible total for one card.
func (c *DailyCard) MaxScore() float64 { return float64(len(ScoreFields)) * 10 }

// Percentage is the card total as a percentage, rounded to one decimal.
func (c *DailyCard) Percentage() float64 {
	max := c.MaxScore()
	if max == 0 {
		return 0
	}
	return math.Round(c.TotalScore()/max*1000) / 10
}

// Response builds the JSON shape the frontend expects.
func (c *DailyCard) Response() map[string]any {
	data := map[string]any{
		"id":                     c.ID,
		"user_id":                c.UserID,
		"date":                   c.Date.Format(store.DateLayout),
		"extra_work_description": c.ExtraWorkDescription,
		"total_score":            c.TotalScore(),
		"max_score":              c.MaxScore(),
		"percentage":             c.Percentage(),
		"created_at":             formatTime(c.CreatedAt),
		"updated_at":             formatTime(c.UpdatedAt),
	}
	for _, f := range ScoreFields {
		data[f] = c.Score(f)
	}
	return data
}
