package main

import (
	"foodgramApi/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"net/http"
	"strconv"
)

var ErrSelfSubscription = fiber.Map{"error": "You cannot subscribe to yourself."}
var ErrAlreadySubscribed = fiber.Map{"error": "You are already subscribed to this user."}
var ErrInvalidRecipesLimit = fiber.Map{"error": "recipes_limit must be a non-negative integer."}

const subscriptionFanOut = 4

func subscriptionRoutes(router fiber.Router) {
	router.Get("/users/subscriptions", JwtRequired, ListSubscriptions)
	router.Post("/users/:id<int>/subscribe", JwtRequired, Subscribe)
	router.Delete("/users/:id<int>/subscribe", JwtRequired, Unsubscribe)
}

// parseRecipesLimit returns -1 when no cap was requested.
func parseRecipesLimit(c *fiber.Ctx) (int, bool) {
	raw := c.Query("recipes_limit")

	if raw == "" {
		return -1, true
	}

	limit, err := strconv.Atoi(raw)

	if err != nil || limit < 0 {
		return 0, false
	}

	return limit, true
}

// BuildSubscriptions assembles the subscription view of follower for the
// given authors, preserving their order.
func BuildSubscriptions(c *fiber.Ctx, follower *models.User, authors []models.User, recipesLimit int) ([]SubscriptionResponse, error) {
	responses := make([]SubscriptionResponse, len(authors))
	authorIds := make([]uint, len(authors))

	for i := range authors {
		authorIds[i] = authors[i].ID
	}

	var mutualIds []uint

	if len(authorIds) > 0 {
		tx := DatabaseConnection.Model(&models.Follow{}).Where("author_id = ? AND user_id IN ?", follower.ID, authorIds).Pluck("user_id", &mutualIds)

		if tx.Error != nil {
			return nil, tx.Error
		}
	}

	mutual := map[uint]bool{}

	for _, id := range mutualIds {
		mutual[id] = true
	}

	g, gctx := errgroup.WithContext(c.UserContext())
	g.SetLimit(subscriptionFanOut)

	for i := range authors {
		author := &authors[i]

		g.Go(func() error {
			var recipes []models.Recipe
			var count int64

			db := DatabaseConnection.WithContext(gctx)

			if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
				return err
			}

			query := db.Where("author_id = ?", author.ID).Order("pub_date DESC, id DESC")

			if recipesLimit >= 0 {
				query = query.Limit(recipesLimit)
			}

			if recipesLimit != 0 {
				if err := query.Find(&recipes).Error; err != nil {
					return err
				}
			}

			preview := make([]ShortRecipeResponse, len(recipes))

			for j := range recipes {
				preview[j] = NewShortRecipeResponse(&recipes[j])
			}

			responses[i] = SubscriptionResponse{
				UserResponse: NewUserResponse(author, true),
				IsMutual:     mutual[author.ID],
				Recipes:      preview,
				RecipesCount: count,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return responses, nil
}

func ListSubscriptions(c *fiber.Ctx) error {
	var follows []models.Follow
	var count int64

	user := CurrentUser(c)

	p, perr := ParsePagination(c)

	if perr != nil {
		return c.Status(http.StatusBadRequest).JSON(perr)
	}

	recipesLimit, ok := parseRecipesLimit(c)

	if !ok {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRecipesLimit)
	}

	if err := DatabaseConnection.Model(&models.Follow{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return err
	}

	tx := DatabaseConnection.Preload("Author").Where("user_id = ?", user.ID).Order("id").Offset(p.Offset()).Limit(p.Limit).Find(&follows)

	if tx.Error != nil {
		return tx.Error
	}

	authors := make([]models.User, 0, len(follows))

	for _, f := range follows {
		if f.Author != nil {
			authors = append(authors, *f.Author)
		}
	}

	responses, err := BuildSubscriptions(c, user, authors, recipesLimit)

	if err != nil {
		return err
	}

	return SendPage(c, p, count, responses)
}

func Subscribe(c *fiber.Ctx) error {
	var author models.User
	var count int64

	user := CurrentUser(c)

	authorId, err := c.ParamsInt("id")

	if err != nil {
		return c.Status(http.StatusNotFound).JSON(ErrUserNotFound)
	}

	if uint(authorId) == user.ID {
		return c.Status(http.StatusBadRequest).JSON(ErrSelfSubscription)
	}

	recipesLimit, ok := parseRecipesLimit(c)

	if !ok {
		return c.Status(http.StatusBadRequest).JSON(ErrInvalidRecipesLimit)
	}

	if err := DatabaseConnection.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", user.ID, authorId).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return c.Status(http.StatusBadRequest).JSON(ErrAlreadySubscribed)
	}

	tx := DatabaseConnection.First(&author, authorId)

	if isNotFound(tx.Error) {
		return c.Status(http.StatusNotFound).JSON(ErrUserNotFound)
	} else if tx.Error != nil {
		return tx.Error
	}

	if err := DatabaseConnection.Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error; isDuplicateKey(err) {
		return c.Status(http.StatusBadRequest).JSON(ErrAlreadySubscribed)
	} else if err != nil {
		return err
	}

	responses, err := BuildSubscriptions(c, user, []models.User{author}, recipesLimit)

	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(responses[0])
}

// Unsubscribe succeeds whether or not the subscription existed.
func Unsubscribe(c *fiber.Ctx) error {
	var author models.User

	user := CurrentUser(c)

	authorId, err := c.ParamsInt("id")

	if err != nil {
		return c.Status(http.StatusNotFound).JSON(ErrUserNotFound)
	}

	tx := DatabaseConnection.First(&author, authorId)

	if isNotFound(tx.Error) {
		return c.Status(http.StatusNotFound).JSON(ErrUserNotFound)
	} else if tx.Error != nil {
		return tx.Error
	}

	tx = DatabaseConnection.Where("user_id = ? AND author_id = ?", user.ID, author.ID).Delete(&models.Follow{})

	if tx.Error != nil {
		return tx.Error
	}

	return c.SendStatus(http.StatusNoContent)
}
