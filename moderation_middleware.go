package main

import (
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"net/http"
)

// EnforceAdminRole must run after JwtRequired.
func EnforceAdminRole(c *fiber.Ctx) error {
	user := CurrentUser(c)

	if user == nil || !user.IsAdmin() {
		return c.Status(http.StatusForbidden).JSON(ErrPermissionDenied)
	}

	return c.Next()
}

// CanModifyRecipe reports whether user may edit or delete the recipe: its
// author, moderators and administrators can.
func CanModifyRecipe(user *models.User, recipe *models.Recipe) bool {
	if user == nil {
		return false
	}

	return recipe.AuthorID == user.ID || user.IsModerator() || user.IsAdmin()
}
