package main

import (
	"crypto/subtle"
	"errors"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"net/http"
	"strings"
)

var ErrAlreadyRebuilding = fiber.Map{"error": "Search index rebuild is already running. Please wait."}
var ErrSearchDisabled = fiber.Map{"error": "Search index is not configured."}

func adminRoutes(router fiber.Router) {
	router.Post("/admin/rebuild_search_index", EnforceAdminSecret, doRebuildSearchIndex)
	router.Get("/admin/rebuild_search_index/status", EnforceAdminSecret, RebuildSearchIndexStatus)
}

func EnforceAdminSecret(c *fiber.Ctx) error {
	authorizationHeader := c.Get(fiber.HeaderAuthorization)

	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		return c.Status(http.StatusUnauthorized).JSON(ErrMissingToken)
	}

	provided := strings.TrimPrefix(authorizationHeader, "Bearer ")

	if ServiceConfig.AdminSecret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(ServiceConfig.AdminSecret)) != 1 {
		return c.Status(http.StatusUnauthorized).JSON(ErrInvalidToken)
	}

	return c.Next()
}

func doRebuildSearchIndex(c *fiber.Ctx) error {
	if !SearchEnabled() {
		return c.Status(http.StatusBadRequest).JSON(ErrSearchDisabled)
	}

	err := RebuildSearchIndex()

	if errors.Is(err, ErrRebuildRunning) {
		return c.Status(http.StatusBadRequest).JSON(ErrAlreadyRebuilding)
	} else if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{})
}

func RebuildSearchIndexStatus(c *fiber.Ctx) error {
	if !SearchEnabled() {
		return c.Status(http.StatusBadRequest).JSON(ErrSearchDisabled)
	}

	batch, err := RedisConnection.Get(ctx, rebuildFlagKey).Int()

	if errors.Is(err, redis.Nil) {
		return c.SendStatus(http.StatusNoContent)
	} else if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"batch": batch})
}
