package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindnotes/mindnotes-backend/internal/database"
	"github.com/mindnotes/mindnotes-backend/internal/models"
)

const promptsPerDay = 3

// PromptService deals out a daily set of journaling prompts per user and
// records responses. The catalog lives in the relational ledger; per-day sets
// and responses are time-series documents.
type PromptService struct {
	mongo *mongo.Database
	pg    *sql.DB
}

func NewPromptService(mdb *mongo.Database, pg *sql.DB) *PromptService {
	return &PromptService{mongo: mdb, pg: pg}
}

func (s *PromptService) sets() *mongo.Collection {
	return s.mongo.Collection(database.CollDailyPromptSets)
}

func (s *PromptService) responses() *mongo.Collection {
	return s.mongo.Collection(database.CollPromptResponses)
}

// TodaySet returns today's prompt set, generating one from the active catalog
// on first request. Duplicate generation under concurrency resolves to the
// stored set via the unique (user, date) index.
func (s *PromptService) TodaySet(ctx context.Context, userID string) (*models.DailyPromptSet, error) {
	now := time.Now().UTC()
	today := now.Format("2006-01-02")

	var set models.DailyPromptSet
	err := s.sets().FindOne(ctx, bson.M{"user_id": userID, "date": today}).Decode(&set)
	if err == nil {
		return &set, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load prompt set: %w", err)
	}

	picks, err := s.randomPrompts(ctx, promptsPerDay)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return nil, fmt.Errorf("prompt catalog is empty")
	}

	set = models.DailyPromptSet{
		UserID:      userID,
		Date:        today,
		Prompts:     picks,
		GeneratedAt: now,
	}
	res, err := s.sets().InsertOne(ctx, &set)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing models.DailyPromptSet
			if findErr := s.sets().FindOne(ctx, bson.M{"user_id": userID, "date": today}).Decode(&existing); findErr == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("store prompt set: %w", err)
	}
	set.ID = res.InsertedID.(primitive.ObjectID)
	return &set, nil
}

func (s *PromptService) randomPrompts(ctx context.Context, n int) ([]models.PromptPick, error) {
	rows, err := s.pg.QueryContext(ctx, `
		SELECT id, question, category
		FROM daily_prompts WHERE is_active = TRUE
		ORDER BY RANDOM() LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("pick prompts: %w", err)
	}
	defer rows.Close()

	picks := []models.PromptPick{}
	for rows.Next() {
		var id, question, category string
		if err := rows.Scan(&id, &question, &category); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		picks = append(picks, models.PromptPick{PromptID: id, Question: question, Category: category})
	}
	return picks, rows.Err()
}

// Respond records an answer to one of today's prompts and marks it completed
// in the set. Answering a prompt outside today's set is a validation error.
func (s *PromptService) Respond(ctx context.Context, userID, promptID, response string, timeSpentSeconds int) (*models.PromptResponse, map[string]string, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, map[string]string{"response": "response is required"}, nil
	}

	set, err := s.TodaySet(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	inSet := false
	for _, p := range set.Prompts {
		if p.PromptID == promptID {
			inSet = true
			break
		}
	}
	if !inSet {
		return nil, map[string]string{"prompt_id": "prompt is not in today's set"}, nil
	}

	now := time.Now().UTC()
	pr := &models.PromptResponse{
		UserID:           userID,
		PromptID:         promptID,
		SetDate:          set.Date,
		Response:         response,
		WordCount:        len(strings.Fields(response)),
		TimeSpentSeconds: timeSpentSeconds,
		AnsweredAt:       now,
	}
	res, err := s.responses().InsertOne(ctx, pr)
	if err != nil {
		return nil, nil, fmt.Errorf("store response: %w", err)
	}
	pr.ID = res.InsertedID.(primitive.ObjectID)

	_, err = s.sets().UpdateByID(ctx, set.ID, bson.M{
		"$addToSet": bson.M{"completed_prompt_ids": promptID},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mark prompt completed: %w", err)
	}
	return pr, nil, nil
}

// History lists the user's past responses newest first.
func (s *PromptService) History(ctx context.Context, userID string, page, limit int) ([]models.PromptResponse, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := s.responses().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}

	opts := optionsFindPage(page, limit, bson.D{{Key: "answered_at", Value: -1}})
	cursor, err := s.responses().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	defer cursor.Close(ctx)

	result := []models.PromptResponse{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("decode responses: %w", err)
	}
	return result, total, nil
}

// Streak returns the consecutive-day prompt streak, computed from the dates
// of answered sets.
func (s *PromptService) Streak(ctx context.Context, userID string) (int, error) {
	cursor, err := s.responses().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$set_date"}}},
	})
	if err != nil {
		return 0, fmt.Errorf("aggregate response days: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Day string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode response days: %w", err)
	}

	days := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		if d, err := time.Parse("2006-01-02", r.Day); err == nil {
			days = append(days, d)
		}
	}
	return CurrentStreak(days, time.Now().UTC()), nil
}
