package main

import (
	"fmt"
	"foodgramApi/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recipePage struct {
	Count   int64            `json:"count"`
	Next    *string          `json:"next"`
	Results []RecipeResponse `json:"results"`
}

func recipeBody(tags []uint, ingredients ...RecipeIngredientRequest) map[string]interface{} {
	return map[string]interface{}{
		"ingredients":  ingredients,
		"tags":         tags,
		"image":        testImage,
		"name":         "Omelette",
		"text":         "Whisk the eggs and fry.",
		"cooking_time": 10,
	}
}

func TestCreateRecipe(t *testing.T) {
	app := setupTestApp(t)

	author := createUser(t, "author@example.com", "author", models.RoleUser)
	token := tokenFor(t, author)

	breakfast := createTag(t, "Breakfast", "#E26C2D", "breakfast")
	lunch := createTag(t, "Lunch", "#49B64E", "lunch")
	eggs := createIngredient(t, "eggs", "pcs")
	milk := createIngredient(t, "milk", "ml")

	body := recipeBody([]uint{breakfast.ID, lunch.ID},
		RecipeIngredientRequest{ID: milk.ID, Amount: 50},
		RecipeIngredientRequest{ID: eggs.ID, Amount: 3},
	)

	resp := doRequest(t, app, http.MethodPost, "/api/recipes/", body, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var recipe RecipeResponse
	decodeBody(t, resp, &recipe)

	assert.Equal(t, "Omelette", recipe.Name)
	assert.Equal(t, 10, recipe.CookingTime)
	assert.Equal(t, author.ID, recipe.Author.ID)
	assert.False(t, recipe.IsFavorited)
	assert.False(t, recipe.IsInShoppingCart)

	require.Len(t, recipe.Tags, 2)
	assert.Equal(t, "lunch", recipe.Tags[0].Slug)
	assert.Equal(t, "breakfast", recipe.Tags[1].Slug)

	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, RecipeIngredientResponse{ID: milk.ID, Name: "milk", MeasurementUnit: "ml", Amount: 50}, recipe.Ingredients[0])
	assert.Equal(t, RecipeIngredientResponse{ID: eggs.ID, Name: "eggs", MeasurementUnit: "pcs", Amount: 3}, recipe.Ingredients[1])

	require.True(t, strings.HasPrefix(recipe.Image, "/media/recipes/"))
	assert.True(t, strings.HasSuffix(recipe.Image, ".png"))

	stored := filepath.Join(ServiceConfig.Storage.MediaRoot, strings.TrimPrefix(recipe.Image, "/media/"))
	_, err := os.Stat(stored)
	assert.NoError(t, err)

	resp = doRequest(t, app, http.MethodPost, "/api/recipes/", body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateRecipeValidation(t *testing.T) {
	app := setupTestApp(t)

	author := createUser(t, "author@example.com", "author", models.RoleUser)
	token := tokenFor(t, author)

	tag := createTag(t, "Dinner", "#8775D2", "dinner")
	eggs := createIngredient(t, "eggs", "pcs")

	tests := []struct {
		name   string
		field  string
		mutate func(body map[string]interface{})
	}{
		{"DuplicateIngredient", "ingredients", func(body map[string]interface{}) {
			body["ingredients"] = []RecipeIngredientRequest{{ID: eggs.ID, Amount: 1}, {ID: eggs.ID, Amount: 2}}
		}},
		{"ZeroAmount", "amount", func(body map[string]interface{}) {
			body["ingredients"] = []RecipeIngredientRequest{{ID: eggs.ID, Amount: 0}}
		}},
		{"UnknownIngredient", "ingredients", func(body map[string]interface{}) {
			body["ingredients"] = []RecipeIngredientRequest{{ID: 999, Amount: 1}}
		}},
		{"NoIngredients", "ingredients", func(body map[string]interface{}) {
			body["ingredients"] = []RecipeIngredientRequest{}
		}},
		{"NoTags", "tags", func(body map[string]interface{}) {
			body["tags"] = []uint{}
		}},
		{"DuplicateTags", "tags", func(body map[string]interface{}) {
			body["tags"] = []uint{tag.ID, tag.ID}
		}},
		{"UnknownTag", "tags", func(body map[string]interface{}) {
			body["tags"] = []uint{999}
		}},
		{"ZeroCookingTime", "cooking_time", func(body map[string]interface{}) {
			body["cooking_time"] = 0
		}},
		{"MissingImage", "image", func(body map[string]interface{}) {
			delete(body, "image")
		}},
		{"NotAnImage", "image", func(body map[string]interface{}) {
			body["image"] = "data:image/png;base64,aGVsbG8gd29ybGQ="
		}},
		{"MissingName", "name", func(body map[string]interface{}) {
			delete(body, "name")
		}},
		{"LongName", "name", func(body map[string]interface{}) {
			body["name"] = strings.Repeat("a", recipeNameMaxLength+1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := recipeBody([]uint{tag.ID}, RecipeIngredientRequest{ID: eggs.ID, Amount: 2})
			tt.mutate(body)

			resp := doRequest(t, app, http.MethodPost, "/api/recipes/", body, token)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errBody map[string]interface{}
			decodeBody(t, resp, &errBody)
			assert.Contains(t, errBody["fields"], tt.field)
		})
	}

	var count int64
	require.NoError(t, DatabaseConnection.Model(&models.Recipe{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGetRecipe(t *testing.T) {
	app := setupTestApp(t)

	author := createUser(t, "author@example.com", "author", models.RoleUser)
	viewer := createUser(t, "viewer@example.com", "viewer", models.RoleUser)
	flour := createIngredient(t, "flour", "g")
	recipe := createRecipe(t, author, "Bread", nil, testLine{flour, 500})

	require.NoError(t, DatabaseConnection.Create(&models.Favorite{UserID: viewer.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, DatabaseConnection.Create(&models.Follow{UserID: viewer.ID, AuthorID: author.ID}).Error)

	path := fmt.Sprintf("/api/recipes/%d/", recipe.ID)

	resp := doRequest(t, app, http.MethodGet, path, nil, tokenFor(t, viewer))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RecipeResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.IsFavorited)
	assert.False(t, body.IsInShoppingCart)
	assert.True(t, body.Author.IsSubscribed)
	require.Len(t, body.Ingredients, 1)
	assert.Equal(t, 500, body.Ingredients[0].Amount)

	resp = doRequest(t, app, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.False(t, body.IsFavorited)
	assert.False(t, body.Author.IsSubscribed)

	resp = doRequest(t, app, http.MethodGet, "/api/recipes/999/", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListRecipes(t *testing.T) {
	app := setupTestApp(t)

	alice := createUser(t, "alice@example.com", "alice", models.RoleUser)
	bob := createUser(t, "bob@example.com", "bob", models.RoleUser)

	breakfast := createTag(t, "Breakfast", "#E26C2D", "breakfast")
	dinner := createTag(t, "Dinner", "#8775D2", "dinner")

	porridge := createRecipe(t, alice, "Porridge", []models.Tag{breakfast})
	createRecipe(t, alice, "Steak", []models.Tag{dinner})
	eggs := createRecipe(t, bob, "Eggs", []models.Tag{breakfast, dinner})

	require.NoError(t, DatabaseConnection.Create(&models.Favorite{UserID: bob.ID, RecipeID: porridge.ID}).Error)
	require.NoError(t, DatabaseConnection.Create(&models.Cart{UserID: bob.ID, RecipeID: eggs.ID}).Error)

	names := func(page recipePage) []string {
		result := make([]string, len(page.Results))

		for i, r := range page.Results {
			result[i] = r.Name
		}

		return result
	}

	tests := []struct {
		name     string
		query    string
		token    string
		expected []string
	}{
		{"All", "", "", []string{"Eggs", "Steak", "Porridge"}},
		{"ByAuthor", fmt.Sprintf("?author=%d", alice.ID), "", []string{"Steak", "Porridge"}},
		{"ByTag", "?tags=breakfast", "", []string{"Eggs", "Porridge"}},
		{"ByAnyOfTags", "?tags=breakfast&tags=dinner", "", []string{"Eggs", "Steak", "Porridge"}},
		{"UnknownTag", "?tags=brunch", "", []string{}},
		{"Favorited", "?is_favorited=1", tokenFor(t, bob), []string{"Porridge"}},
		{"InCart", "?is_in_shopping_cart=true", tokenFor(t, bob), []string{"Eggs"}},
		{"FavoritedAnonymous", "?is_favorited=1", "", []string{}},
		{"FavoritedFalse", "?is_favorited=0", tokenFor(t, bob), []string{"Eggs", "Steak", "Porridge"}},
		{"Combined", fmt.Sprintf("?author=%d&tags=breakfast", bob.ID), "", []string{"Eggs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, http.MethodGet, "/api/recipes/"+tt.query, nil, tt.token)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var page recipePage
			decodeBody(t, resp, &page)
			assert.Equal(t, tt.expected, names(page))
			assert.Equal(t, int64(len(tt.expected)), page.Count)
		})
	}

	t.Run("Paginated", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/recipes/?limit=2", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page recipePage
		decodeBody(t, resp, &page)
		assert.Equal(t, int64(3), page.Count)
		assert.Len(t, page.Results, 2)
		assert.NotNil(t, page.Next)
	})

	t.Run("InvalidAuthor", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/recipes/?author=alice", nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateRecipe(t *testing.T) {
	app := setupTestApp(t)

	author := createUser(t, "author@example.com", "author", models.RoleUser)
	stranger := createUser(t, "stranger@example.com", "stranger", models.RoleUser)
	moderator := createUser(t, "mod@example.com", "mod", models.RoleModerator)

	breakfast := createTag(t, "Breakfast", "#E26C2D", "breakfast")
	dinner := createTag(t, "Dinner", "#8775D2", "dinner")
	flour := createIngredient(t, "flour", "g")
	sugar := createIngredient(t, "sugar", "g")

	recipe := createRecipe(t, author, "Cake", []models.Tag{breakfast}, testLine{flour, 200})
	path := fmt.Sprintf("/api/recipes/%d/", recipe.ID)

	resp := doRequest(t, app, http.MethodPatch, path, map[string]interface{}{"name": "Hacked"}, tokenFor(t, stranger))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPatch, path, map[string]interface{}{"name": "Hacked"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPatch, path, map[string]interface{}{
		"name":        "Sponge cake",
		"tags":        []uint{dinner.ID},
		"ingredients": []RecipeIngredientRequest{{ID: sugar.ID, Amount: 100}},
	}, tokenFor(t, author))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RecipeResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Sponge cake", body.Name)
	assert.Equal(t, "Mix and bake.", body.Text)
	assert.Equal(t, 30, body.CookingTime)
	require.Len(t, body.Tags, 1)
	assert.Equal(t, "dinner", body.Tags[0].Slug)
	require.Len(t, body.Ingredients, 1)
	assert.Equal(t, "sugar", body.Ingredients[0].Name)

	var lines int64
	require.NoError(t, DatabaseConnection.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&lines).Error)
	assert.Equal(t, int64(1), lines)

	resp = doRequest(t, app, http.MethodPatch, path, map[string]interface{}{"cooking_time": 45}, tokenFor(t, moderator))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.Equal(t, 45, body.CookingTime)
	assert.Equal(t, "Sponge cake", body.Name)

	resp = doRequest(t, app, http.MethodPatch, path, map[string]interface{}{"cooking_time": 0}, tokenFor(t, author))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPatch, "/api/recipes/999/", map[string]interface{}{"name": "x"}, tokenFor(t, author))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteRecipe(t *testing.T) {
	app := setupTestApp(t)

	author := createUser(t, "author@example.com", "author", models.RoleUser)
	stranger := createUser(t, "stranger@example.com", "stranger", models.RoleUser)
	admin := createUser(t, "admin@example.com", "admin", models.RoleAdmin)

	tag := createTag(t, "Dinner", "#8775D2", "dinner")
	flour := createIngredient(t, "flour", "g")

	first := createRecipe(t, author, "Bread", []models.Tag{tag}, testLine{flour, 500})
	second := createRecipe(t, author, "Pizza", []models.Tag{tag}, testLine{flour, 300})

	require.NoError(t, DatabaseConnection.Create(&models.Favorite{UserID: stranger.ID, RecipeID: first.ID}).Error)
	require.NoError(t, DatabaseConnection.Create(&models.Cart{UserID: stranger.ID, RecipeID: first.ID}).Error)

	path := fmt.Sprintf("/api/recipes/%d/", first.ID)

	resp := doRequest(t, app, http.MethodDelete, path, nil, tokenFor(t, stranger))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, path, nil, tokenFor(t, author))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, model := range []interface{}{&models.RecipeIngredient{}, &models.Favorite{}, &models.Cart{}} {
		var count int64
		require.NoError(t, DatabaseConnection.Model(model).Where("recipe_id = ?", first.ID).Count(&count).Error)
		assert.Equal(t, int64(0), count, "%T", model)
	}

	var tagged int64
	require.NoError(t, DatabaseConnection.Table("recipe_tags").Where("recipe_id = ?", first.ID).Count(&tagged).Error)
	assert.Equal(t, int64(0), tagged)

	resp = doRequest(t, app, http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", second.ID), nil, tokenFor(t, admin))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
