package model

import (
	"time"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// Role values stored in users.role.
const (
	RoleParticipant = "participant"
	RoleSupervisor  = "supervisor"
	RoleSuperAdmin  = "super_admin"
)

// ValidRoles lists the roles an admin may assign.
var ValidRoles = []string{RoleParticipant, RoleSupervisor, RoleSuperAdmin}

// Status values stored in users.status. Registrations start pending and an
// admin moves them to active or rejected; active users may withdraw.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// ValidStatuses lists the statuses an admin may set directly.
var ValidStatuses = []string{StatusPending, StatusActive, StatusRejected, StatusWithdrawn}

// User is a row in the `users` table: participants, supervisors and the
// super admin all live here, distinguished by Role. MemberID is the public
// membership number assigned on approval; it is nullable because pending
// registrations do not have one yet.
//
// Halqa and SupervisedHalqa are attached by the handlers after separate
// lookups and are never read or written by either storage backend.
type User struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	MemberID       *int64    `gorm:"uniqueIndex" json:"member_id"`
	FullName       string    `gorm:"size:200;not null" json:"full_name"`
	Gender         string    `gorm:"size:10;not null" json:"gender"`
	Age            int64     `gorm:"not null" json:"age"`
	Phone          string    `gorm:"size:30;not null" json:"phone"`
	Email          string    `gorm:"size:200;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:200;not null" json:"-"`
	Country        string    `gorm:"size:100;not null" json:"country"`
	ReferralSource *string   `gorm:"type:text" json:"referral_source"`
	Status         string    `gorm:"size:20;default:pending" json:"status"`
	Role           string    `gorm:"size:20;default:participant" json:"role"`
	RejectionNote  *string   `gorm:"type:text" json:"rejection_note"`
	HalqaID        *int64    `json:"halqa_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Halqa           *Halqa `gorm:"-" json:"-"`
	SupervisedHalqa *Halqa `gorm:"-" json:"-"`
}

func (u *User) TableName() string { return "users" }

func (u *User) GetID() int64 { return u.ID }

func (u *User) SetID(id int64) { u.ID = id }

// ColumnNames returns the persisted columns, excluding the primary key.
// Order matches ColumnValues.
func (u *User) ColumnNames() []string {
	return []string{
		"member_id", "full_name", "gender", "age", "phone", "email",
		"password_hash", "country", "referral_source", "status", "role",
		"rejection_note", "halqa_id", "created_at", "updated_at",
	}
}

func (u *User) ColumnValues() []any {
	return []any{
		u.MemberID, u.FullName, u.Gender, u.Age, u.Phone, u.Email,
		u.PasswordHash, u.Country, u.ReferralSource, u.Status, u.Role,
		u.RejectionNote, u.HalqaID, u.CreatedAt, u.UpdatedAt,
	}
}

// LoadRow hydrates the struct from a serverless result row. Early deployments
// stored the display name under `name`, so that key is accepted as a
// fallback for `full_name`.
func (u *User) LoadRow(row store.Row) {
	u.ID = store.RowInt64(row, "id")
	u.MemberID = store.RowInt64Ptr(row, "member_id")
	u.FullName = store.RowString(row, "full_name")
	if u.FullName == "" {
		u.FullName = store.RowString(row, "name")
	}
	u.Gender = store.RowString(row, "gender")
	u.Age = store.RowInt64(row, "age")
	u.Phone = store.RowString(row, "phone")
	u.Email = store.RowString(row, "email")
	u.PasswordHash = store.RowString(row, "password_hash")
	u.Country = store.RowString(row, "country")
	u.ReferralSource = store.RowStringPtr(row, "referral_source")
	u.Status = store.RowString(row, "status")
	u.Role = store.RowString(row, "role")
	u.RejectionNote = store.RowStringPtr(row, "rejection_note")
	u.HalqaID = store.RowInt64Ptr(row, "halqa_id")
	u.CreatedAt = store.RowTime(row, "created_at")
	u.UpdatedAt = store.RowTime(row, "updated_at")
}

// Response builds the JSON shape the frontend expects. Halqa context is
// included only when the corresponding relationship has been attached.
func (u *User) Response() map[string]any {
	data := map[string]any{
		"id":              u.ID,
		"member_id":       u.MemberID,
		"full_name":       u.FullName,
		"gender":          u.Gender,
		"age":             u.Age,
		"phone":           u.Phone,
		"email":           u.Email,
		"country":         u.Country,
		"referral_source": u.ReferralSource,
		"status":          u.Status,
		"role":            u.Role,
		"rejection_note":  u.RejectionNote,
		"halqa_id":        u.HalqaID,
		"halqa_name":      nil,
		"created_at":      formatTime(u.CreatedAt),
		"updated_at":      formatTime(u.UpdatedAt),
	}
	if u.Halqa != nil {
		data["halqa_name"] = u.Halqa.Name
		if u.Halqa.Supervisor != nil {
			data["supervisor_name"] = u.Halqa.Supervisor.FullName
			data["supervisor_phone"] = u.Halqa.Supervisor.Phone
		}
	}
	if u.SupervisedHalqa != nil {
		data["supervised_halqa_name"] = u.SupervisedHalqa.Name
	}
	return data
}

// IsActive reports whether the account may use authenticated endpoints.
func (u *User) IsActive() bool { return u.Status == StatusActive }

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(store.DateTimeLayout)
}

func validValue(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// ValidRole reports whether r is an assignable role name.
func ValidRole(r string) bool { return validValue(r, ValidRoles) }

// ValidStatus reports whether s is an assignable status name.
func ValidStatus(s string) bool { return validValue(s, ValidStatuses) }
