package main

import (
	"fmt"
	"foodgramApi/models"
	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"strings"
	"time"
)

var Argon2IdParams = *argon2id.DefaultParams

var ErrInvalidCredentials = fiber.Map{"error": "Unable to log in with provided credentials."}

func authRoutes(router fiber.Router) {
	router.Post("/auth/token/login", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}), doLogin)
	router.Post("/auth/token/logout", JwtRequired, doLogout)
}

func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, &Argon2IdParams)
}

// CheckPassword verifies password against the user's stored hash. Legacy
// bcrypt hashes are replaced by an argon2id hash after a successful check.
func CheckPassword(u *models.User, password string) (bool, error) {
	if strings.HasPrefix(u.Password, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
			return false, nil
		}

		hash, err := HashPassword(password)

		if err != nil {
			return false, err
		}

		u.Password = hash

		if err := DatabaseConnection.Model(u).Update("password", hash).Error; err != nil {
			return false, fmt.Errorf("failed to upgrade password hash: %w", err)
		}

		return true, nil
	}

	return argon2id.ComparePasswordAndHash(password, u.Password)
}

func doLogin(c *fiber.Ctx) error {
	var l LoginRequest
	var u models.User

	if err := c.BodyParser(&l); err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRequestBody)
	}

	if fields := ValidateStruct(&l); fields != nil {
		return c.Status(http.StatusBadRequest).JSON(fields.Response())
	}

	tx := DatabaseConnection.Where("email = ?", l.Email).First(&u)

	if isNotFound(tx.Error) {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidCredentials)
	} else if tx.Error != nil {
		return tx.Error
	}

	match, err := CheckPassword(&u, l.Password)

	if err != nil {
		return err
	}

	if !match || !u.IsActive {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidCredentials)
	}

	token, err := IssueToken(u.ID)

	if err != nil {
		return err
	}

	now := time.Now()

	if err := DatabaseConnection.Model(&u).Update("last_login", &now).Error; err != nil {
		Log.WithError(err).WithField("user_id", u.ID).Warn("failed to record last login")
	}

	Log.WithField("user_id", u.ID).Info("user logged in")

	return c.Status(http.StatusOK).JSON(AuthTokenResponse{AuthToken: token})
}

func doLogout(c *fiber.Ctx) error {
	tokenId, _ := c.Locals(localsTokenId).(string)

	if err := RevokeToken(tokenId); err != nil {
		return err
	}

	return c.SendStatus(http.StatusNoContent)
}
