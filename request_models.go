package main

import (
	"errors"
	"fmt"
	"foodgramApi/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"reflect"
	"regexp"
	"strings"
)

var ErrInvalidRequestBody = fiber.Map{"error": "Invalid request body."}
var ErrInternalServerError = fiber.Map{"error": "Internal server error."}
var ErrPermissionDenied = fiber.Map{"error": "You do not have permission to perform this action."}

var UsernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
var SlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return strings.ToLower(value) != "me" && UsernameRegex.MatchString(value)
	})

	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return SlugRegex.MatchString(fl.Field().String())
	})

	return v
}

// FieldErrors maps a request field to a human readable message.
type FieldErrors map[string]string

func (f FieldErrors) Response() fiber.Map {
	return fiber.Map{"error": "Validation failed.", "fields": f}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "hexcolor", "len":
		return "Enter a color in #RRGGBB format."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "username":
		return "Enter a valid username. It may contain letters, digits and @/./+/-/_ and cannot be \"me\"."
	default:
		return "Invalid value."
	}
}

func ValidateStruct(s interface{}) FieldErrors {
	err := Validate.Struct(s)

	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return FieldErrors{"non_field_errors": err.Error()}
	}

	fields := FieldErrors{}

	for _, fe := range validationErrors {
		fields[fe.Field()] = validationMessage(fe)
	}

	return fields
}

type UserCreateRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=150"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

type RecipeIngredientRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeWriteRequest is shared by create and partial update; nil fields were
// not supplied by the client.
type RecipeWriteRequest struct {
	Ingredients *[]RecipeIngredientRequest `json:"ingredients"`
	Tags        *[]uint                    `json:"tags"`
	Image       *string                    `json:"image"`
	Name        *string                    `json:"name"`
	Text        *string                    `json:"text"`
	CookingTime *int                       `json:"cooking_time"`
}

type TagCreateRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

type IngredientCreateRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

type AuthTokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type UserCreatedResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

type ShortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type SubscriptionResponse struct {
	UserResponse
	IsMutual     bool                  `json:"is_mutual"`
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

type PageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}
