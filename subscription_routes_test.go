package main

import (
	"fmt"
	"foodgramApi/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
)

func TestSubscribe(t *testing.T) {
	app := setupTestApp(t)

	follower := createUser(t, "follower@example.com", "follower", models.RoleUser)
	author := createUser(t, "author@example.com", "author", models.RoleUser)
	token := tokenFor(t, follower)

	createRecipe(t, author, "Pancakes", nil)

	path := fmt.Sprintf("/api/users/%d/subscribe/", author.ID)

	resp := doRequest(t, app, http.MethodPost, path, nil, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body SubscriptionResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, author.ID, body.ID)
	assert.True(t, body.IsSubscribed)
	assert.False(t, body.IsMutual)
	assert.Equal(t, int64(1), body.RecipesCount)
	require.Len(t, body.Recipes, 1)
	assert.Equal(t, "Pancakes", body.Recipes[0].Name)

	t.Run("Duplicate", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, path, nil, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Self", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", follower.ID), nil, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownAuthor", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, "/api/users/999/subscribe/", nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Anonymous", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodPost, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	var count int64
	require.NoError(t, DatabaseConnection.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUnsubscribe(t *testing.T) {
	app := setupTestApp(t)

	follower := createUser(t, "follower@example.com", "follower", models.RoleUser)
	author := createUser(t, "author@example.com", "author", models.RoleUser)
	token := tokenFor(t, follower)

	require.NoError(t, DatabaseConnection.Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error)

	path := fmt.Sprintf("/api/users/%d/subscribe/", author.ID)

	resp := doRequest(t, app, http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var count int64
	require.NoError(t, DatabaseConnection.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// removing a subscription that does not exist still succeeds
	resp = doRequest(t, app, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/users/999/subscribe/", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSubscriptions(t *testing.T) {
	app := setupTestApp(t)

	follower := createUser(t, "follower@example.com", "follower", models.RoleUser)
	first := createUser(t, "first@example.com", "first", models.RoleUser)
	second := createUser(t, "second@example.com", "second", models.RoleUser)
	token := tokenFor(t, follower)

	createRecipe(t, first, "Soup", nil)
	createRecipe(t, first, "Stew", nil)
	createRecipe(t, first, "Salad", nil)

	require.NoError(t, DatabaseConnection.Create(&models.Follow{UserID: follower.ID, AuthorID: first.ID}).Error)
	require.NoError(t, DatabaseConnection.Create(&models.Follow{UserID: follower.ID, AuthorID: second.ID}).Error)
	require.NoError(t, DatabaseConnection.Create(&models.Follow{UserID: second.ID, AuthorID: follower.ID}).Error)

	resp := doRequest(t, app, http.MethodGet, "/api/users/subscriptions/?recipes_limit=2", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Count   int64                  `json:"count"`
		Results []SubscriptionResponse `json:"results"`
	}
	decodeBody(t, resp, &page)

	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Results, 2)

	assert.Equal(t, "first", page.Results[0].Username)
	assert.Equal(t, int64(3), page.Results[0].RecipesCount)
	require.Len(t, page.Results[0].Recipes, 2)
	assert.Equal(t, "Salad", page.Results[0].Recipes[0].Name)
	assert.Equal(t, "Stew", page.Results[0].Recipes[1].Name)
	assert.False(t, page.Results[0].IsMutual)

	assert.Equal(t, "second", page.Results[1].Username)
	assert.Equal(t, int64(0), page.Results[1].RecipesCount)
	assert.Empty(t, page.Results[1].Recipes)
	assert.True(t, page.Results[1].IsMutual)
	assert.True(t, page.Results[1].IsSubscribed)

	t.Run("NoLimit", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/users/subscriptions/", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &page)
		assert.Len(t, page.Results[0].Recipes, 3)
	})

	t.Run("ZeroLimit", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/users/subscriptions/?recipes_limit=0", nil, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &page)
		assert.Empty(t, page.Results[0].Recipes)
		assert.Equal(t, int64(3), page.Results[0].RecipesCount)
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		resp := doRequest(t, app, http.MethodGet, "/api/users/subscriptions/?recipes_limit=-1", nil, token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSubscribeDuplicateKey(t *testing.T) {
	setupTestApp(t)

	follower := createUser(t, "follower@example.com", "follower", models.RoleUser)
	author := createUser(t, "author@example.com", "author", models.RoleUser)

	require.NoError(t, DatabaseConnection.Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error)

	err := DatabaseConnection.Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error
	assert.True(t, isDuplicateKey(err), "got %v", err)
}
