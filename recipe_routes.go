package main

import (
	"errors"
	"fmt"
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrRecipeNotFound = fiber.Map{"error": "Recipe not found."}
var ErrInvalidAuthor = fiber.Map{"error": "Invalid author."}

const recipeNameMaxLength = 200

func recipeRoutes(router fiber.Router) {
	router.Get("/recipes", JwtOptional, ListRecipes)
	router.Post("/recipes", JwtRequired, CreateRecipe)
	router.Get("/recipes/:id<int>", JwtOptional, GetRecipe)
	router.Patch("/recipes/:id<int>", JwtRequired, UpdateRecipe)
	router.Delete("/recipes/:id<int>", JwtRequired, DeleteRecipe)
}

func recipePreloads(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags").Preload("Ingredients.Ingredient")
}

func loadRecipe(id int) (*models.Recipe, error) {
	var r models.Recipe

	if err := recipePreloads(DatabaseConnection).First(&r, id).Error; err != nil {
		return nil, err
	}

	return &r, nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}

	return false
}

type recipeInput struct {
	tags        []models.Tag
	ingredients []models.RecipeIngredient
}

// validateRecipe checks a write request. On create every field is required;
// on partial update only supplied fields are validated.
func validateRecipe(r *RecipeWriteRequest, partial bool) (FieldErrors, *recipeInput, error) {
	fields := FieldErrors{}
	input := &recipeInput{}

	if !partial {
		if r.Ingredients == nil {
			fields["ingredients"] = "This field is required."
		}

		if r.Tags == nil {
			fields["tags"] = "This field is required."
		}

		if r.Image == nil || *r.Image == "" {
			fields["image"] = "This field is required."
		}

		if r.Name == nil {
			fields["name"] = "This field is required."
		}

		if r.Text == nil {
			fields["text"] = "This field is required."
		}

		if r.CookingTime == nil {
			fields["cooking_time"] = "This field is required."
		}
	}

	if r.Ingredients != nil {
		seen := map[uint]bool{}

		if len(*r.Ingredients) == 0 {
			fields["ingredients"] = "Add at least one ingredient."
		}

		for _, ri := range *r.Ingredients {
			if seen[ri.ID] {
				fields["ingredients"] = "Ingredients must be unique."
				break
			}

			seen[ri.ID] = true

			if ri.Amount <= 0 {
				fields["amount"] = "Ingredient amount must be greater than zero."
				break
			}

			ingredient, err := GetIngredient(ri.ID)

			if isNotFound(err) {
				fields["ingredients"] = fmt.Sprintf("Ingredient %d does not exist.", ri.ID)
				break
			} else if err != nil {
				return nil, nil, err
			}

			input.ingredients = append(input.ingredients, models.RecipeIngredient{
				IngredientID: ingredient.ID,
				Amount:       ri.Amount,
			})
		}
	}

	if r.Tags != nil {
		seen := map[uint]bool{}
		ids := make([]uint, 0, len(*r.Tags))

		for _, id := range *r.Tags {
			if seen[id] {
				fields["tags"] = "Tags must be unique."
				break
			}

			seen[id] = true
			ids = append(ids, id)
		}

		if len(ids) == 0 {
			fields["tags"] = "Choose at least one tag."
		}

		if _, failed := fields["tags"]; !failed {
			if err := DatabaseConnection.Where("id IN ?", ids).Find(&input.tags).Error; err != nil {
				return nil, nil, err
			}

			if len(input.tags) != len(ids) {
				fields["tags"] = "Some of the selected tags do not exist."
			}
		}
	}

	if r.CookingTime != nil && *r.CookingTime <= 0 {
		fields["cooking_time"] = "Cooking time must be greater than zero."
	}

	if r.Name != nil {
		if strings.TrimSpace(*r.Name) == "" {
			fields["name"] = "This field may not be blank."
		} else if utf8.RuneCountInString(*r.Name) > recipeNameMaxLength {
			fields["name"] = fmt.Sprintf("Ensure this field has no more than %d characters.", recipeNameMaxLength)
		}
	}

	if r.Text != nil && strings.TrimSpace(*r.Text) == "" {
		fields["text"] = "This field may not be blank."
	}

	if partial && r.Image != nil && *r.Image == "" {
		fields["image"] = "This field may not be blank."
	}

	if len(fields) > 0 {
		return fields, nil, nil
	}

	return nil, input, nil
}

// saveImage stores the submitted image; client errors are reported as field errors.
func saveImage(c *fiber.Ctx, dataUri string) (string, FieldErrors, error) {
	url, err := SaveRecipeImage(c.UserContext(), dataUri)

	if errors.Is(err, ErrInvalidImageData) || errors.Is(err, ErrUnsupportedImage) {
		return "", FieldErrors{"image": err.Error()}, nil
	}

	if err != nil {
		return "", nil, err
	}

	return url, nil, nil
}

func applyRecipeFilters(c *fiber.Ctx, query *gorm.DB) (*gorm.DB, fiber.Map) {
	viewer := CurrentUser(c)

	if raw := c.Query("author"); raw != "" {
		authorId, err := strconv.Atoi(raw)

		if err != nil {
			return nil, ErrInvalidAuthor
		}

		query = query.Where("author_id = ?", authorId)
	}

	var slugs []string

	for _, slug := range c.Context().QueryArgs().PeekMulti("tags") {
		slugs = append(slugs, string(slug))
	}

	if len(slugs) > 0 {
		tagged := DatabaseConnection.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", slugs)

		query = query.Where("id IN (?)", tagged)
	}

	memberships := []struct {
		param string
		model interface{}
	}{
		{"is_favorited", &models.Favorite{}},
		{"is_in_shopping_cart", &models.Cart{}},
	}

	for _, m := range memberships {
		if !isTruthy(c.Query(m.param)) {
			continue
		}

		// anonymous callers have no favorites and no cart
		if viewer == nil {
			query = query.Where("1 = 0")
			continue
		}

		members := DatabaseConnection.Model(m.model).Select("recipe_id").Where("user_id = ?", viewer.ID)
		query = query.Where("id IN (?)", members)
	}

	return query, nil
}

func ListRecipes(c *fiber.Ctx) error {
	var recipes []models.Recipe
	var count int64

	p, perr := ParsePagination(c)

	if perr != nil {
		return c.Status(http.StatusBadRequest).JSON(perr)
	}

	countQuery, ferr := applyRecipeFilters(c, DatabaseConnection.Model(&models.Recipe{}))

	if ferr != nil {
		return c.Status(http.StatusBadRequest).JSON(ferr)
	}

	if err := countQuery.Count(&count).Error; err != nil {
		return err
	}

	listQuery, _ := applyRecipeFilters(c, recipePreloads(DatabaseConnection))

	tx := listQuery.Order("pub_date DESC, id DESC").Offset(p.Offset()).Limit(p.Limit).Find(&recipes)

	if tx.Error != nil {
		return tx.Error
	}

	responses, err := NewRecipeResponses(CurrentUser(c), recipes)

	if err != nil {
		return err
	}

	return SendPage(c, p, count, responses)
}

func GetRecipe(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")

	recipe, err := loadRecipe(id)

	if isNotFound(err) {
		return c.Status(http.StatusNotFound).JSON(ErrRecipeNotFound)
	} else if err != nil {
		return err
	}

	response, err := NewRecipeResponse(CurrentUser(c), recipe)

	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(response)
}

func CreateRecipe(c *fiber.Ctx) error {
	var r RecipeWriteRequest

	if err := c.BodyParser(&r); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	fields, input, err := validateRecipe(&r, false)

	if err != nil {
		return err
	}

	if fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	image, fields, err := saveImage(c, *r.Image)

	if err != nil {
		return err
	}

	if fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	user := CurrentUser(c)

	recipe := models.Recipe{
		AuthorID:    user.ID,
		Name:        *r.Name,
		Text:        *r.Text,
		CookingTime: *r.CookingTime,
		Image:       image,
		Tags:        input.tags,
		Ingredients: input.ingredients,
	}

	err = DatabaseConnection.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Tags.*").Create(&recipe).Error
	})

	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	Log.WithField("recipe_id", recipe.ID).WithField("user_id", user.ID).Info("recipe created")

	created, err := loadRecipe(int(recipe.ID))

	if err != nil {
		return err
	}

	response, err := NewRecipeResponse(user, created)

	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(response)
}

func UpdateRecipe(c *fiber.Ctx) error {
	var r RecipeWriteRequest

	id, _ := c.ParamsInt("id")
	user := CurrentUser(c)

	recipe, err := loadRecipe(id)

	if isNotFound(err) {
		return c.Status(http.StatusNotFound).JSON(ErrRecipeNotFound)
	} else if err != nil {
		return err
	}

	if !CanModifyRecipe(user, recipe) {
		return c.Status(http.StatusForbidden).JSON(ErrPermissionDenied)
	}

	if err := c.BodyParser(&r); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	fields, input, err := validateRecipe(&r, true)

	if err != nil {
		return err
	}

	if fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	updates := map[string]interface{}{}

	if r.Name != nil {
		updates["name"] = *r.Name
	}

	if r.Text != nil {
		updates["text"] = *r.Text
	}

	if r.CookingTime != nil {
		updates["cooking_time"] = *r.CookingTime
	}

	if r.Image != nil {
		image, fields, err := saveImage(c, *r.Image)

		if err != nil {
			return err
		}

		if fields != nil {
			return c.Status(http.StatusBadRequest).JSON(fields.Response())
		}

		updates["image"] = image
	}

	// a bare target keeps the preloaded associations out of the update
	target := &models.Recipe{ID: recipe.ID}

	err = DatabaseConnection.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(target).Updates(updates).Error; err != nil {
				return err
			}
		}

		if r.Tags != nil {
			if err := tx.Model(target).Association("Tags").Replace(input.tags); err != nil {
				return err
			}
		}

		if r.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}

			for i := range input.ingredients {
				input.ingredients[i].RecipeID = recipe.ID
			}

			if err := tx.Create(&input.ingredients).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to update recipe %d: %w", recipe.ID, err)
	}

	updated, err := loadRecipe(id)

	if err != nil {
		return err
	}

	response, err := NewRecipeResponse(user, updated)

	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(response)
}

func DeleteRecipe(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	user := CurrentUser(c)

	recipe, err := loadRecipe(id)

	if isNotFound(err) {
		return c.Status(http.StatusNotFound).JSON(ErrRecipeNotFound)
	} else if err != nil {
		return err
	}

	if !CanModifyRecipe(user, recipe) {
		return c.Status(http.StatusForbidden).JSON(ErrPermissionDenied)
	}

	err = DatabaseConnection.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.RecipeIngredient{}, &models.Favorite{}, &models.Cart{}} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Recipe{ID: recipe.ID}).Association("Tags").Clear(); err != nil {
			return err
		}

		return tx.Delete(&models.Recipe{}, recipe.ID).Error
	})

	if err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", recipe.ID, err)
	}

	return c.SendStatus(http.StatusNoContent)
}
