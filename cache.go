package main

import (
	"foodgramApi/models"
	"github.com/hashicorp/golang-lru"
)

const ingredientCacheSize = 4096

// IngredientCache holds ingredients by id. Ingredients are reference data that
// is only ever added, so entries never go stale.
var IngredientCache *lru.Cache

func SetupCaches() error {
	cache, err := lru.New(ingredientCacheSize)

	if err != nil {
		return err
	}

	IngredientCache = cache

	return nil
}

// GetIngredient returns the ingredient with id, or gorm.ErrRecordNotFound.
func GetIngredient(id uint) (*models.Ingredient, error) {
	if cached, ok := IngredientCache.Get(id); ok {
		i := cached.(models.Ingredient)
		return &i, nil
	}

	var i models.Ingredient

	if err := DatabaseConnection.First(&i, id).Error; err != nil {
		return nil, err
	}

	IngredientCache.Add(id, i)

	return &i, nil
}

func CacheIngredient(i *models.Ingredient) {
	IngredientCache.Add(i.ID, *i)
}
