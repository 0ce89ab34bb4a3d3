package main

import (
	"context"
	"errors"
	"fmt"
	"foodgramApi/models"
	"github.com/RediSearch/redisearch-go/redisearch"
	"github.com/bytedance/sonic"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
	"sort"
	"strings"
	"unicode"
)

var ctx = context.Background()

const IngredientSearchIndex = "ingredientSearch"
const ingredientKeyPrefix = "ingredient:"
const rebuildFlagKey = "rebuild_search_index"
const fuzzyResultLimit = 20

var ErrRebuildRunning = errors.New("search index rebuild already running")

func ingredientKey(id uint) string {
	return fmt.Sprintf("%s%d", ingredientKeyPrefix, id)
}

func createSearchIndex() error {
	RedisConnection.Do(ctx, "FT.DROPINDEX", IngredientSearchIndex)

	return RedisConnection.Do(ctx, "FT.CREATE", IngredientSearchIndex,
		"ON", "JSON", "PREFIX", "1", ingredientKeyPrefix,
		"SCHEMA", "$.name", "AS", "name", "TEXT", "SORTABLE").Err()
}

func IndexIngredient(i *models.Ingredient) error {
	res, err := ReJsonClient.JSONSet(ingredientKey(i.ID), "$", i)

	if err != nil {
		return err
	}

	if s, ok := res.(string); !ok || s != "OK" {
		Log.WithField("ingredient_id", i.ID).Warn("ingredient was not added to the search index")
	}

	return nil
}

// acquireRebuildFlag sets the rebuild flag only if no rebuild holds it.
func acquireRebuildFlag() (bool, error) {
	acquired, err := RedisConnection.SetNX(ctx, rebuildFlagKey, 0, 0).Result()

	if err != nil {
		return false, fmt.Errorf("failed to set rebuild flag: %w", err)
	}

	return acquired, nil
}

// RebuildSearchIndex recreates the ingredient index and refills it from the
// database in the background. Progress is tracked in redis under rebuildFlagKey.
func RebuildSearchIndex() error {
	acquired, err := acquireRebuildFlag()

	if err != nil {
		return err
	}

	if !acquired {
		return ErrRebuildRunning
	}

	if err := createSearchIndex(); err != nil {
		RedisConnection.Del(ctx, rebuildFlagKey)
		return fmt.Errorf("failed to create search index: %w", err)
	}

	go func() {
		defer RedisConnection.Del(ctx, rebuildFlagKey)

		if err := indexAllIngredients(func(batch int) {
			RedisConnection.Set(ctx, rebuildFlagKey, batch, 0)
		}); err != nil {
			Log.WithError(err).Error("search index rebuild failed")
			return
		}

		Log.Info("finished rebuilding search index")
	}()

	return nil
}

// indexAllIngredients writes every stored ingredient into the index.
func indexAllIngredients(progress func(batch int)) error {
	var batchIngredients []models.Ingredient

	tx := DatabaseConnection.Order("id").FindInBatches(&batchIngredients, 1000, func(tx *gorm.DB, batch int) error {
		for i := range batchIngredients {
			if err := IndexIngredient(&batchIngredients[i]); err != nil {
				Log.WithError(err).WithField("ingredient_id", batchIngredients[i].ID).Error("failed to index ingredient")
			}
		}

		Log.WithField("batch", batch).Info("processed search index batch")

		if progress != nil {
			progress(batch)
		}

		return nil
	})

	return tx.Error
}

func escapeSearchTerm(term string) string {
	var b strings.Builder

	for _, r := range term {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteRune('\\')
		}

		b.WriteRune(r)
	}

	return b.String()
}

func hasNamePrefix(name string, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix))
}

func sortIngredients(ingredients []models.Ingredient) {
	sort.SliceStable(ingredients, func(i, j int) bool {
		return strings.ToLower(ingredients[i].Name) < strings.ToLower(ingredients[j].Name)
	})
}

func searchIndexedIngredients(prefix string) ([]models.Ingredient, error) {
	words := strings.Fields(prefix)

	for i := range words {
		words[i] = escapeSearchTerm(words[i])
	}

	query := fmt.Sprintf("@name:(%s*)", strings.Join(words, " "))
	docs, total, err := RediSearchClient.Search(redisearch.NewQuery(query).Limit(0, 10000))

	if err != nil {
		return nil, err
	}

	ingredients := make([]models.Ingredient, 0, total)

	for _, doc := range docs {
		raw, ok := doc.Properties["$"].(string)

		if !ok {
			continue
		}

		var i models.Ingredient

		if err := sonic.Unmarshal([]byte(raw), &i); err != nil {
			return nil, err
		}

		// the index matches any word prefix, the API promises a name prefix
		if hasNamePrefix(i.Name, prefix) {
			ingredients = append(ingredients, i)
		}
	}

	sortIngredients(ingredients)

	return ingredients, nil
}

func searchDatabaseIngredients(prefix string) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient

	tx := DatabaseConnection.Where("LOWER(name) LIKE ?", strings.ToLower(prefix)+"%").Order("name").Find(&ingredients)

	if tx.Error != nil {
		return nil, tx.Error
	}

	if len(ingredients) > 0 {
		return ingredients, nil
	}

	return fuzzySearchIngredients(prefix)
}

type ingredientNames []models.Ingredient

func (n ingredientNames) String(i int) string {
	return n[i].Name
}

func (n ingredientNames) Len() int {
	return len(n)
}

// fuzzySearchIngredients is the fallback for queries no name starts with.
func fuzzySearchIngredients(query string) ([]models.Ingredient, error) {
	var all []models.Ingredient

	tx := DatabaseConnection.Order("name").Find(&all)

	if tx.Error != nil {
		return nil, tx.Error
	}

	matches := fuzzy.FindFrom(query, ingredientNames(all))
	result := make([]models.Ingredient, 0, fuzzyResultLimit)

	for _, match := range matches {
		if len(result) == fuzzyResultLimit {
			break
		}

		result = append(result, all[match.Index])
	}

	return result, nil
}

func SearchIngredients(prefix string) ([]models.Ingredient, error) {
	if SearchEnabled() {
		ingredients, err := searchIndexedIngredients(prefix)

		if err == nil {
			return ingredients, nil
		}

		Log.WithError(err).Warn("search index query failed, using the database")
	}

	return searchDatabaseIngredients(prefix)
}
