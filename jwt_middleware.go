package main

import (
	"errors"
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var ErrMissingToken = fiber.Map{"error": "Authentication credentials were not provided."}
var ErrInvalidToken = fiber.Map{"error": "Invalid token."}
var ErrInactiveUser = fiber.Map{"error": "User inactive or deleted."}

const (
	localsUser    = "user"
	localsTokenId = "tokenId"
)

type AssignedUser struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the user and records its id so it can be revoked.
func IssueToken(userId uint) (string, error) {
	tokenId := uuid.NewString()
	now := time.Now()

	claims := AssignedUser{
		UserID: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       tokenId,
			Subject:  strconv.FormatUint(uint64(userId), 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if ServiceConfig.Jwt.Timeout > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(ServiceConfig.Jwt.Timeout) * time.Second))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(ServiceConfig.Jwt.Secret))

	if err != nil {
		return "", err
	}

	tx := DatabaseConnection.Create(&models.AuthToken{UserID: userId, Token: tokenId})

	if tx.Error != nil {
		return "", tx.Error
	}

	return signed, nil
}

func ValidateToken(providedToken string) (*models.User, string, fiber.Map) {
	claims := AssignedUser{}
	token, err := jwt.ParseWithClaims(providedToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return []byte(ServiceConfig.Jwt.Secret), nil
	})

	if err != nil || !token.Valid {
		return nil, "", ErrInvalidToken
	}

	var t models.AuthToken

	tx := DatabaseConnection.Preload("User").Where("token = ? AND user_id = ?", claims.ID, claims.UserID).First(&t)

	if tx.Error != nil || t.User == nil {
		return nil, "", ErrInvalidToken
	}

	if !t.User.IsActive {
		return nil, "", ErrInactiveUser
	}

	return t.User, t.Token, nil
}

// tokenFromHeader accepts both "Token <jwt>" and "Bearer <jwt>".
func tokenFromHeader(header string) (string, bool) {
	for _, prefix := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, prefix) {
			return strings.TrimPrefix(header, prefix), true
		}
	}

	return "", false
}

func authenticate(c *fiber.Ctx, required bool) error {
	authorizationHeader := c.Get(fiber.HeaderAuthorization)

	if authorizationHeader == "" && !required {
		return c.Next()
	}

	providedToken, ok := tokenFromHeader(authorizationHeader)

	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(ErrMissingToken)
	}

	user, tokenId, err := ValidateToken(providedToken)

	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(err)
	}

	c.Locals(localsUser, user)
	c.Locals(localsTokenId, tokenId)
	return c.Next()
}

func JwtRequired(c *fiber.Ctx) error {
	return authenticate(c, true)
}

// JwtOptional authenticates when a token is supplied and lets anonymous
// requests through otherwise.
func JwtOptional(c *fiber.Ctx) error {
	return authenticate(c, false)
}

func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUser).(*models.User)
	return user
}

func RevokeToken(tokenId string) error {
	return DatabaseConnection.Where("token = ?", tokenId).Delete(&models.AuthToken{}).Error
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey needs a connection opened with TranslateError.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
