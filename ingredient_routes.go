package main

import (
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"net/http"
)

var ErrIngredientNotFound = fiber.Map{"error": "Ingredient not found."}
var ErrIngredientExists = fiber.Map{"error": "This ingredient already exists with the given measurement unit."}

func ingredientRoutes(router fiber.Router) {
	router.Get("/ingredients", ListIngredients)
	router.Get("/ingredients/:id<int>", GetIngredientById)
	router.Post("/ingredients", JwtRequired, EnforceAdminRole, CreateIngredient)
}

// ListIngredients filters by a case-insensitive name prefix when ?name= is set.
func ListIngredients(c *fiber.Ctx) error {
	//goland:noinspection GoPreferNilSlice
	ingredients := []models.Ingredient{}

	if name := c.Query("name"); name != "" {
		found, err := SearchIngredients(name)

		if err != nil {
			return err
		}

		if found != nil {
			ingredients = found
		}

		return c.Status(http.StatusOK).JSON(ingredients)
	}

	if err := DatabaseConnection.Order("name").Find(&ingredients).Error; err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(ingredients)
}

func GetIngredientById(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")

	ingredient, err := GetIngredient(uint(id))

	if isNotFound(err) {
		return c.Status(http.StatusNotFound).JSON(ErrIngredientNotFound)
	} else if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(ingredient)
}

func CreateIngredient(c *fiber.Ctx) error {
	var r IngredientCreateRequest
	var count int64

	if err := c.BodyParser(&r); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	if fields := ValidateStruct(&r); fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	tx := DatabaseConnection.Model(&models.Ingredient{}).Where("name = ? AND measurement_unit = ?", r.Name, r.MeasurementUnit).Count(&count)

	if tx.Error != nil {
		return tx.Error
	}

	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrIngredientExists)
	}

	i := models.Ingredient{Name: r.Name, MeasurementUnit: r.MeasurementUnit}

	if err := DatabaseConnection.Create(&i).Error; err != nil {
		return err
	}

	CacheIngredient(&i)

	if SearchEnabled() {
		if err := IndexIngredient(&i); err != nil {
			Log.WithError(err).WithField("ingredient_id", i.ID).Error("failed to index ingredient")
		}
	}

	return c.Status(http.StatusCreated).JSON(i)
}
