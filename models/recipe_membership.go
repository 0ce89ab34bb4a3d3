package models

import (
	"time"
)

// Favorite and Cart are (user, recipe) membership rows, unique per pair.

type Favorite struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	User      *User   `gorm:"constraint:OnDelete:CASCADE"`
	RecipeID  uint    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	Recipe    *Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

type Cart struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	User      *User   `gorm:"constraint:OnDelete:CASCADE"`
	RecipeID  uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	Recipe    *Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
