package main

import (
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"net/http"
	"strings"
)

var ErrTagNotFound = fiber.Map{"error": "Tag not found."}
var ErrTagExists = fiber.Map{"error": "A tag with this name, color or slug already exists."}

func tagRoutes(router fiber.Router) {
	router.Get("/tags", ListTags)
	router.Get("/tags/:id<int>", GetTag)
	router.Post("/tags", JwtRequired, EnforceAdminRole, CreateTag)
}

func ListTags(c *fiber.Ctx) error {
	//goland:noinspection GoPreferNilSlice
	tags := []models.Tag{}

	if err := DatabaseConnection.Order("id DESC").Find(&tags).Error; err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(tags)
}

func GetTag(c *fiber.Ctx) error {
	var t models.Tag

	id, _ := c.ParamsInt("id")

	tx := DatabaseConnection.First(&t, id)

	if isNotFound(tx.Error) {
		return c.Status(http.StatusNotFound).JSON(ErrTagNotFound)
	} else if tx.Error != nil {
		return tx.Error
	}

	return c.Status(http.StatusOK).JSON(t)
}

func CreateTag(c *fiber.Ctx) error {
	var r TagCreateRequest
	var count int64

	if err := c.BodyParser(&r); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	if fields := ValidateStruct(&r); fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	t := models.Tag{
		Name:  r.Name,
		Color: strings.ToUpper(r.Color),
		Slug:  r.Slug,
	}

	tx := DatabaseConnection.Model(&models.Tag{}).Where("name = ? OR color = ? OR slug = ?", t.Name, t.Color, t.Slug).Count(&count)

	if tx.Error != nil {
		return tx.Error
	}

	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrTagExists)
	}

	if err := DatabaseConnection.Create(&t).Error; err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(t)
}
