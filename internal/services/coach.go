package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrCoachUnavailable is returned when no coach API key is configured.
var ErrCoachUnavailable = errors.New("coach service is not configured")

const coachSystemPrompt = "You are a friendly fitness coach for a workout tracking app. " +
	"Give short, practical training advice. Encourage consistency over intensity, " +
	"and never give medical diagnoses."

// CoachMessage is one turn of a user's conversation with the AI coach,
// stored in MongoDB.
type CoachMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Role      string             `bson:"role" json:"role"` // "user" or "assistant"
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// CoachService proxies chat messages to an OpenAI-compatible completions
// endpoint and keeps per-user history in MongoDB.
type CoachService struct {
	apiKey string
	apiURL string
	model  string
	db     *mongo.Database
	client *http.Client
}

func NewCoachService(apiKey, apiURL, model string, db *mongo.Database) *CoachService {
	return &CoachService{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		db:     db,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// EnsureIndexes configures indexes for the coach_messages collection.
// Called on startup from main after Mongo has connected.
func (s *CoachService) EnsureIndexes(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	col := s.db.Collection("coach_messages")

	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("idx_user_created"),
	})
	return err
}

// Ask sends the user's message (plus recent history) to the model and
// returns the reply. Both turns are persisted asynchronously.
func (s *CoachService) Ask(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	if s.apiKey == "" {
		return "", ErrCoachUnavailable
	}

	history, err := s.History(ctx, userID, 10)
	if err != nil {
		// History is best-effort context; answer without it.
		history = nil
	}

	type chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	messages := []chatMessage{{Role: "system", Content: coachSystemPrompt}}
	for i := len(history) - 1; i >= 0; i-- {
		messages = append(messages, chatMessage{Role: history[i].Role, Content: history[i].Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	body, err := json.Marshal(map[string]interface{}{
		"model":    s.model,
		"messages": messages,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("coach API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("coach API returned no choices")
	}

	reply := payload.Choices[0].Message.Content
	s.saveAsync(userID, "user", message)
	s.saveAsync(userID, "assistant", reply)
	return reply, nil
}

// saveAsync persists a turn to MongoDB without blocking the caller.
func (s *CoachService) saveAsync(userID uuid.UUID, role, content string) {
	if s.db == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, _ = s.db.Collection("coach_messages").InsertOne(ctx, CoachMessage{
			ID:        primitive.NewObjectID(),
			UserID:    userID.String(),
			Role:      role,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		})
	}()
}

// History returns the user's most recent turns, newest first.
func (s *CoachService) History(ctx context.Context, userID uuid.UUID, limit int64) ([]CoachMessage, error) {
	if s.db == nil {
		return []CoachMessage{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.db.Collection("coach_messages").Find(ctx, bson.M{"user_id": userID.String()}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]CoachMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
