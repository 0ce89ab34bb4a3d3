package models

import (
	"time"
)

// Follow is a directed edge from UserID (follower) to AuthorID.
type Follow struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"not null;uniqueIndex:idx_follow_user_author"`
	User      *User `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint  `gorm:"not null;uniqueIndex:idx_follow_user_author;index"`
	Author    *User `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
