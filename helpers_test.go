package main

import (
	"bytes"
	"foodgramApi/models"
	"github.com/bytedance/sonic"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

const testPassword = "correct-horse-battery"

const testImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// setupTestApp points every global at a fresh sqlite database and local media
// directory inside t.TempDir.
func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dir := t.TempDir()

	ServiceConfig = Config{
		AdminSecret: "admin-secret",
		Jwt:         JwtConfig{Secret: "test-secret", Timeout: 3600},
		Storage: StorageConfig{
			Driver:    "local",
			MediaRoot: filepath.Join(dir, "media"),
			MediaUrl:  "/media/",
		},
		Pagination: PaginationConfig{DefaultLimit: 6, MaxLimit: 100},
	}

	Argon2IdParams.Memory = 1024
	Argon2IdParams.Iterations = 1
	Argon2IdParams.Parallelism = 1

	Log.SetOutput(io.Discard)

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDb, err := db.DB()
	require.NoError(t, err)
	sqlDb.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDb.Close()
	})

	require.NoError(t, MigrateDatabase(db))

	DatabaseConnection = db
	RedisConnection = nil
	ReJsonClient = nil
	RediSearchClient = nil

	require.NoError(t, SetupImageStorage())
	require.NoError(t, SetupCaches())

	return NewApp()
}

func doRequest(t *testing.T, app *fiber.App, method string, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Token "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(data, v), string(data))
}

func createUser(t *testing.T, email string, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := HashPassword(testPassword)
	require.NoError(t, err)

	u := models.User{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  hash,
		Role:      role,
		IsActive:  true,
	}

	require.NoError(t, DatabaseConnection.Create(&u).Error)

	return &u
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()

	token, err := IssueToken(u.ID)
	require.NoError(t, err)

	return token
}

func createTag(t *testing.T, name string, color string, slug string) models.Tag {
	t.Helper()

	tag := models.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(t, DatabaseConnection.Create(&tag).Error)

	return tag
}

func createIngredient(t *testing.T, name string, unit string) models.Ingredient {
	t.Helper()

	i := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, DatabaseConnection.Create(&i).Error)

	return i
}

type testLine struct {
	ingredient models.Ingredient
	amount     int
}

func createRecipe(t *testing.T, author *models.User, name string, tags []models.Tag, lines ...testLine) models.Recipe {
	t.Helper()

	r := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Mix and bake.",
		CookingTime: 30,
		Image:       "/media/recipes/test.png",
		Tags:        tags,
	}

	for _, line := range lines {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{
			IngredientID: line.ingredient.ID,
			Amount:       line.amount,
		})
	}

	require.NoError(t, DatabaseConnection.Omit("Tags.*").Create(&r).Error)

	return r
}
