package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RolePsychologue Role = "psychologue"
	RoleCandidate   Role = "candidate"
)

type User struct {
	ID                 uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	Email              string    `gorm:"not null;uniqueIndex:users_email_idx"`
	FirstName          string    `gorm:"not null"`
	LastName           string    `gorm:"not null"`
	Phone              *string
	Role               Role   `gorm:"not null;type:VARCHAR(32);index"`
	PreferredLanguage  string `gorm:"type:VARCHAR(10)"`
	PasswordHash       string
	MustChangePassword bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Site struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	Name      string    `gorm:"not null;uniqueIndex"`
	City      string
	IsActive  bool
	CreatedAt time.Time
}

type Department struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	SiteID    uuid.UUID `gorm:"not null;type:VARCHAR(36);uniqueIndex:departments_site_name"`
	Name      string    `gorm:"not null;uniqueIndex:departments_site_name"`
	IsActive  bool
	CreatedAt time.Time
}
