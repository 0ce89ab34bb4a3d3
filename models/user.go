package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID          uint   `gorm:"primaryKey"`
	Email       string `gorm:"size:254;uniqueIndex;not null"`
	Username    string `gorm:"size:150;uniqueIndex;not null"`
	FirstName   string `gorm:"size:150"`
	LastName    string `gorm:"size:150"`
	Password    string
	Role        Role `gorm:"size:9"`
	IsSuperuser bool
	IsActive    bool
	LastLogin   *time.Time
	CreatedAt   time.Time
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// AuthToken backs an issued JWT; deleting the row revokes the token.
type AuthToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	User      *User  `gorm:"constraint:OnDelete:CASCADE"`
	Token     string `gorm:"size:36;uniqueIndex"`
	CreatedAt time.Time
}
