package main

import (
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"net/http"
)

var ErrUserNotFound = fiber.Map{"error": "User not found."}
var ErrEmailTaken = fiber.Map{"error": "Validation failed.", "fields": FieldErrors{"email": "A user with that email already exists."}}
var ErrUsernameTaken = fiber.Map{"error": "Validation failed.", "fields": FieldErrors{"username": "A user with that username already exists."}}
var ErrWrongCurrentPassword = fiber.Map{"error": "Validation failed.", "fields": FieldErrors{"current_password": "Invalid password."}}

func userRoutes(router fiber.Router) {
	router.Get("/users", JwtOptional, ListUsers)
	router.Post("/users", CreateUser)
	router.Get("/users/me", JwtRequired, GetMe)
	router.Post("/users/set_password", JwtRequired, SetPassword)
	router.Get("/users/:id<int>", JwtOptional, GetUser)
}

func CreateUser(c *fiber.Ctx) error {
	var r UserCreateRequest

	if err := c.BodyParser(&r); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	if fields := ValidateStruct(&r); fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	var count int64

	if err := DatabaseConnection.Model(&models.User{}).Where("email = ?", r.Email).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrEmailTaken)
	}

	if err := DatabaseConnection.Model(&models.User{}).Where("username = ?", r.Username).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrUsernameTaken)
	}

	hash, err := HashPassword(r.Password)

	if err != nil {
		return err
	}

	u := models.User{
		Email:     r.Email,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  hash,
		Role:      models.RoleUser,
		IsActive:  true,
	}

	if err := DatabaseConnection.Create(&u).Error; err != nil {
		return err
	}

	Log.WithField("user_id", u.ID).Info("user registered")

	return c.Status(http.StatusCreated).JSON(NewUserCreatedResponse(&u))
}

func ListUsers(c *fiber.Ctx) error {
	var users []models.User
	var count int64

	p, perr := ParsePagination(c)

	if perr != nil {
		return c.Status(http.StatusBadRequest).JSON(perr)
	}

	if err := DatabaseConnection.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	tx := DatabaseConnection.Order("id").Offset(p.Offset()).Limit(p.Limit).Find(&users)

	if tx.Error != nil {
		return tx.Error
	}

	responses, err := NewUserResponses(CurrentUser(c), users)

	if err != nil {
		return err
	}

	return SendPage(c, p, count, responses)
}

func GetUser(c *fiber.Ctx) error {
	var u models.User

	id, err := c.ParamsInt("id")

	if err != nil {
		return c.Status(http.StatusNotFound).JSON(ErrUserNotFound)
	}

	tx := DatabaseConnection.First(&u, id)

	if isNotFound(tx.Error) {
		return c.Status(http.StatusNotFound).JSON(ErrUserNotFound)
	} else if tx.Error != nil {
		return tx.Error
	}

	responses, err := NewUserResponses(CurrentUser(c), []models.User{u})

	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(responses[0])
}

func GetMe(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(NewUserResponse(CurrentUser(c), false))
}

func SetPassword(c *fiber.Ctx) error {
	var r SetPasswordRequest

	if err := c.BodyParser(&r); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	if fields := ValidateStruct(&r); fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	u := CurrentUser(c)

	match, err := CheckPassword(u, r.CurrentPassword)

	if err != nil {
		return err
	}

	if !match {
		return c.Status(http.StatusBadRequest).JSON(ErrWrongCurrentPassword)
	}

	hash, err := HashPassword(r.NewPassword)

	if err != nil {
		return err
	}

	if err := DatabaseConnection.Model(u).Update("password", hash).Error; err != nil {
		return err
	}

	return c.SendStatus(http.StatusNoContent)
}
