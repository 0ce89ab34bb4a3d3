package main

import (
	"fmt"
	"foodgramApi/models"
	"github.com/RediSearch/redisearch-go/redisearch"
	goredis "github.com/go-redis/redis/v8"
	"github.com/lib/pq"
	"github.com/nitishm/go-rejson/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"time"
)

var DatabaseConnection *gorm.DB
var RedisConnection *goredis.Client
var ReJsonClient *rejson.Handler
var RediSearchClient *redisearch.Client

var databaseModels = []interface{}{
	&models.User{},
	&models.AuthToken{},
	&models.Tag{},
	&models.Ingredient{},
	&models.Recipe{},
	&models.RecipeIngredient{},
	&models.Favorite{},
	&models.Cart{},
	&models.Follow{},
}

func databaseDsn(databaseConfig DatabaseConfig) (string, error) {
	if databaseConfig.Url != "" {
		dsn, err := pq.ParseURL(databaseConfig.Url)

		if err != nil {
			return "", fmt.Errorf("invalid database url: %w", err)
		}

		return dsn + " TimeZone=Etc/UTC", nil
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=Etc/UTC",
		databaseConfig.Host,
		databaseConfig.User,
		databaseConfig.Password,
		databaseConfig.Database,
		databaseConfig.Port), nil
}

func gormConfig(databaseConfig DatabaseConfig) *gorm.Config {
	level := gormLogger.Silent

	if databaseConfig.LogQueries {
		level = gormLogger.Info
	}

	return &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.New(Log, gormLogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      level,
		}),
	}
}

func SetupDatabaseConnection() error {
	databaseConfig := ServiceConfig.Database

	dsn, err := databaseDsn(databaseConfig)

	if err != nil {
		return err
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(databaseConfig))

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDb, err := db.DB()

	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	sqlDb.SetMaxIdleConns(databaseConfig.MaxIdleConnections)
	sqlDb.SetMaxOpenConns(databaseConfig.MaxOpenConnections)

	if err := MigrateDatabase(db); err != nil {
		return err
	}

	DatabaseConnection = db

	return nil
}

func MigrateDatabase(db *gorm.DB) error {
	for _, model := range databaseModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

func SetupRedisConnection() {
	redisConfig := ServiceConfig.Redis

	if !redisConfig.Enabled {
		Log.Info("redis disabled, ingredient search uses the database")
		return
	}

	host := fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port)

	rh := rejson.NewReJSONHandler()
	client := goredis.NewClient(&goredis.Options{Addr: host})
	rs := redisearch.NewClient(host, IngredientSearchIndex)

	rh.SetGoRedisClient(client)

	RedisConnection = client
	ReJsonClient = rh
	RediSearchClient = rs
}

func SearchEnabled() bool {
	return RedisConnection != nil
}
