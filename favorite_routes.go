package main

import (
	"bytes"
	"foodgramApi/models"
	"foodgramApi/shopping"
	"github.com/gofiber/fiber/v2"
	"net/http"
	"sort"
)

var ErrAlreadyFavorited = fiber.Map{"error": "Recipe is already in favorites."}
var ErrAlreadyInCart = fiber.Map{"error": "Recipe is already in the shopping cart."}

const shoppingListFilename = "shopping_list"

func favoriteRoutes(router fiber.Router) {
	router.Post("/recipes/:id<int>/favorite", JwtRequired, AddFavorite)
	router.Delete("/recipes/:id<int>/favorite", JwtRequired, RemoveFavorite)

	router.Post("/recipes/:id<int>/shopping_cart", JwtRequired, AddToCart)
	router.Delete("/recipes/:id<int>/shopping_cart", JwtRequired, RemoveFromCart)
	router.Get("/recipes/download_shopping_cart", JwtRequired, DownloadShoppingCart)
}

// addMembership links the current user to a recipe through model. An
// existing link is reported before the recipe itself is looked up.
func addMembership(c *fiber.Ctx, model interface{}, create func(userId uint, recipeId uint) interface{}, duplicate fiber.Map) error {
	var recipe models.Recipe
	var count int64

	user := CurrentUser(c)
	recipeId, _ := c.ParamsInt("id")

	if err := DatabaseConnection.Model(model).Where("user_id = ? AND recipe_id = ?", user.ID, recipeId).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(duplicate)
	}

	tx := DatabaseConnection.First(&recipe, recipeId)

	if isNotFound(tx.Error) {
		return c.Status(http.StatusNotFound).JSON(ErrRecipeNotFound)
	} else if tx.Error != nil {
		return tx.Error
	}

	if err := DatabaseConnection.Create(create(user.ID, recipe.ID)).Error; isDuplicateKey(err) {
		return c.Status(http.StatusBadRequest).JSON(duplicate)
	} else if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(NewShortRecipeResponse(&recipe))
}

// removeMembership succeeds whether or not the link existed.
func removeMembership(c *fiber.Ctx, model interface{}) error {
	user := CurrentUser(c)
	recipeId, _ := c.ParamsInt("id")

	tx := DatabaseConnection.Where("user_id = ? AND recipe_id = ?", user.ID, recipeId).Delete(model)

	if tx.Error != nil {
		return tx.Error
	}

	return c.SendStatus(http.StatusNoContent)
}

func AddFavorite(c *fiber.Ctx) error {
	return addMembership(c, &models.Favorite{}, func(userId uint, recipeId uint) interface{} {
		return &models.Favorite{UserID: userId, RecipeID: recipeId}
	}, ErrAlreadyFavorited)
}

func RemoveFavorite(c *fiber.Ctx) error {
	return removeMembership(c, &models.Favorite{})
}

func AddToCart(c *fiber.Ctx) error {
	return addMembership(c, &models.Cart{}, func(userId uint, recipeId uint) interface{} {
		return &models.Cart{UserID: userId, RecipeID: recipeId}
	}, ErrAlreadyInCart)
}

func RemoveFromCart(c *fiber.Ctx) error {
	return removeMembership(c, &models.Cart{})
}

// ShoppingListItems collects every ingredient line of the user's cart, in the
// order recipes were added, and merges them by ingredient.
func ShoppingListItems(userId uint) ([]shopping.Item, error) {
	var recipeIds []uint
	var lines []models.RecipeIngredient

	tx := DatabaseConnection.Model(&models.Cart{}).Where("user_id = ?", userId).Order("id").Pluck("recipe_id", &recipeIds)

	if tx.Error != nil {
		return nil, tx.Error
	}

	if len(recipeIds) == 0 {
		return shopping.Aggregate(nil), nil
	}

	tx = DatabaseConnection.Preload("Ingredient").Where("recipe_id IN ?", recipeIds).Order("id").Find(&lines)

	if tx.Error != nil {
		return nil, tx.Error
	}

	position := make(map[uint]int, len(recipeIds))

	for i, id := range recipeIds {
		position[id] = i
	}

	sort.SliceStable(lines, func(a, b int) bool {
		return position[lines[a].RecipeID] < position[lines[b].RecipeID]
	})

	items := make([]shopping.LineItem, 0, len(lines))

	for _, line := range lines {
		if line.Ingredient == nil {
			continue
		}

		items = append(items, shopping.LineItem{
			Name:   line.Ingredient.Name,
			Unit:   line.Ingredient.MeasurementUnit,
			Amount: line.Amount,
		})
	}

	return shopping.Aggregate(items), nil
}

func DownloadShoppingCart(c *fiber.Ctx) error {
	var buf bytes.Buffer

	user := CurrentUser(c)

	items, err := ShoppingListItems(user.ID)

	if err != nil {
		return err
	}

	opts := shopping.Options{
		Title:    shopping.DefaultTitle,
		FontPath: ServiceConfig.Pdf.FontPath,
	}

	if c.Query("format") == "txt" {
		if err := shopping.RenderText(&buf, items, opts); err != nil {
			return err
		}

		c.Attachment(shoppingListFilename + ".txt")
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

		return c.Status(http.StatusOK).Send(buf.Bytes())
	}

	if err := shopping.RenderPDF(&buf, items, opts); err != nil {
		Log.WithError(err).WithField("user_id", user.ID).Error("failed to render shopping list")
		return err
	}

	c.Attachment(shoppingListFilename + ".pdf")
	c.Set(fiber.HeaderContentType, "application/pdf")

	return c.Status(http.StatusOK).Send(buf.Bytes())
}
