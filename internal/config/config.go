package config

import (
	"os"
	"strings"
)

type Config struct {
	PostgresURI string
	RedisURI    string
	MongoURI    string
	Port        string

	// CORS: origins allowed to call the API, from ALLOWED_ORIGINS (comma
	// separated) or FRONTEND_URL.
	AllowedOrigins []string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// OpenWeather integration. Empty key disables the lookup and the
	// endpoint serves a static placeholder instead.
	WeatherAPIKey string
	WeatherCity   string

	// AI coach proxy (OpenAI-compatible chat completions endpoint).
	CoachAPIKey string
	CoachAPIURL string
	CoachModel  string

	Environment string
}

func Load() *Config {
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{getEnv("FRONTEND_URL", "http://localhost:3000")}
	}

	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", getEnv("DATABASE_URL", "postgres://localhost:5432/sportlog?sslmode=disable")),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/sportlog"),
		Port:                getEnv("PORT", "8080"),
		AllowedOrigins:      allowedOrigins,
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		WeatherAPIKey:       getEnv("OPENWEATHER_API_KEY", ""),
		WeatherCity:         getEnv("OPENWEATHER_CITY", "Taipei"),
		CoachAPIKey:         getEnv("COACH_API_KEY", ""),
		CoachAPIURL:         getEnv("COACH_API_URL", "https://api.openai.com/v1/chat/completions"),
		CoachModel:          getEnv("COACH_MODEL", "gpt-4o-mini"),
		Environment:         strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
