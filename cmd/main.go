package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"store-catalog-service/internal/api"
	"store-catalog-service/internal/config"
	"store-catalog-service/internal/events"
	"store-catalog-service/internal/repository"
	"store-catalog-service/internal/service"
	"store-catalog-service/migrations"
)

func connectDB(cfg config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("✅ Connected to DB %s", cfg.DBName)
				return db, nil
			}
		}
		log.Printf("❌ Retry %d: Failed to connect to DB %s (%s:%s): %v", i+1, cfg.DBName, cfg.DBHost, cfg.DBPort, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", cfg.DBName, cfg.DBHost, cfg.DBPort, err)
}

func main() {
	cfg := config.Load()

	db, err := connectDB(cfg)
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrate(3, db); err != nil {
		log.Fatalf("Failed to migrate catalog tables: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	publisher := events.NewPublisher(config.NewKafkaWriter(cfg.KafkaTopic))

	storeRepo := repository.NewStoreRepository(db)
	itemRepo := repository.NewItemRepository(db)
	userRepo := repository.NewUserRepository(db)
	revoker := repository.NewRevocationStore(rdb)

	storeService := service.NewStoreService(*storeRepo, *itemRepo, publisher)
	itemService := service.NewItemService(*itemRepo, publisher)
	userService := service.NewUserService(*userRepo)
	authService := service.NewAuthService(*userRepo, revoker, []byte(cfg.JWTSecret))

	storeHandler := api.NewStoreHandler(*storeService)
	itemHandler := api.NewItemHandler(*itemService)
	userHandler := api.NewUserHandler(*userService)
	authHandler := api.NewAuthHandler(authService)

	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Routes
	api.RegisterRoutes(e, authService, itemHandler, storeHandler, userHandler, authHandler)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
