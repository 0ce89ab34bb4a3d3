package models

import (
	"time"
)

type Recipe struct {
	ID          uint   `gorm:"primaryKey"`
	AuthorID    uint   `gorm:"index;not null"`
	Author      *User  `gorm:"constraint:OnDelete:CASCADE"`
	Name        string `gorm:"size:200;not null"`
	Text        string `gorm:"not null"`
	Image       string
	CookingTime int                `gorm:"not null"`
	Tags        []Tag              `gorm:"many2many:recipe_tags"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
	PubDate     time.Time          `gorm:"autoCreateTime;index"`
}

type RecipeIngredient struct {
	ID           uint        `gorm:"primaryKey"`
	RecipeID     uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   *Ingredient `gorm:"constraint:OnDelete:CASCADE"`
	Amount       int         `gorm:"not null"`
}
