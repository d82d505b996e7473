package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/sportlog/backend/internal/config"
	"github.com/sportlog/backend/internal/database"
	"github.com/sportlog/backend/internal/feed"
	"github.com/sportlog/backend/internal/handlers"
	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/progress"
	"github.com/sportlog/backend/internal/routes"
	"github.com/sportlog/backend/internal/services"
	"github.com/sportlog/backend/internal/store"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	redisClient, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Connect to MongoDB (coach conversation history)
	log.Printf("Connecting to MongoDB...")
	mongoClient, mongoDB, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Printf("Warning: Failed to connect to MongoDB: %v", err)
		log.Println("Coach chat history will not be persisted")
	} else {
		defer database.DisconnectMongo(mongoClient)
	}

	// Stores
	users := store.NewPostgresUsers(db)
	activities := store.NewPostgresActivities(db)
	goals := store.NewPostgresGoals(db)
	friends := store.NewPostgresFriends(db)

	// Services
	sessions := services.NewSessionService(redisClient)
	calc := progress.NewCalculator(activities)
	feedService := feed.NewService(activities, goals, friends, calc)

	var photos *services.PhotoService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		photos, err = services.NewPhotoService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Photo uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Photo uploads will not be available")
	}

	weather := services.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherCity, redisClient)

	coach := services.NewCoachService(cfg.CoachAPIKey, cfg.CoachAPIURL, cfg.CoachModel, mongoDB)
	if mongoDB != nil {
		if err := coach.EnsureIndexes(context.Background()); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure coach chat indexes: %v", err)
		} else {
			log.Println("✅ MongoDB coach chat indexes ensured")
		}
	}

	live := services.NewFeedLive(redisClient)
	live.Start(context.Background())

	h := &handlers.Handler{
		Users:      users,
		Activities: activities,
		Goals:      goals,
		Friends:    friends,
		Feed:       feedService,
		Progress:   calc,
		Sessions:   sessions,
		Photos:     photos,
		Weather:    weather,
		Coach:      coach,
		Live:       live,
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(redisClient))

	routes.SetupRoutes(r, h)

	log.Printf("🚀 Sportlog backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
