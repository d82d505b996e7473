package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	weatherCacheKey = "weather:current"
	weatherCacheTTL = 5 * time.Minute
)

// Weather is the payload served to the dashboard widget.
type Weather struct {
	Summary     string    `json:"summary"`
	TempCelsius float64   `json:"tempCelsius,omitempty"`
	City        string    `json:"city,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// WeatherService looks up current conditions from OpenWeather, with a short
// Redis cache so the free tier is not hammered on every dashboard load.
type WeatherService struct {
	apiKey string
	city   string
	redis  *redis.Client
	client *http.Client
}

func NewWeatherService(apiKey, city string, redisClient *redis.Client) *WeatherService {
	return &WeatherService{
		apiKey: apiKey,
		city:   city,
		redis:  redisClient,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the current conditions. Without an API key it returns a
// static placeholder so the endpoint stays usable in development.
func (s *WeatherService) Current(ctx context.Context) (*Weather, error) {
	if s.apiKey == "" {
		return &Weather{Summary: "Weather unavailable", LastUpdated: time.Now().UTC()}, nil
	}

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, weatherCacheKey).Result(); err == nil {
			var w Weather
			if json.Unmarshal([]byte(cached), &w) == nil {
				return &w, nil
			}
		}
	}

	w, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(w); err == nil {
			s.redis.Set(ctx, weatherCacheKey, data, weatherCacheTTL)
		}
	}
	return w, nil
}

func (s *WeatherService) fetch(ctx context.Context) (*Weather, error) {
	endpoint := fmt.Sprintf(
		"https://api.openweathermap.org/data/2.5/weather?q=%s&units=metric&appid=%s",
		url.QueryEscape(s.city), url.QueryEscape(s.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	summary := "Clear"
	if len(payload.Weather) > 0 {
		summary = payload.Weather[0].Description
	}

	return &Weather{
		Summary:     summary,
		TempCelsius: payload.Main.Temp,
		City:        payload.Name,
		LastUpdated: time.Now().UTC(),
	}, nil
}
