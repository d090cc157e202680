package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindnotes/mindnotes-backend/internal/database"
	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// MoodService records mood check-ins in the document store, with the category
// catalog in the relational ledger.
type MoodService struct {
	mongo *mongo.Database
	pg    *sql.DB
}

func NewMoodService(mdb *mongo.Database, pg *sql.DB) *MoodService {
	return &MoodService{mongo: mdb, pg: pg}
}

func (s *MoodService) entries() *mongo.Collection {
	return s.mongo.Collection(database.CollMoodEntries)
}

// Categories lists the active mood categories ordered for display.
func (s *MoodService) Categories(ctx context.Context) ([]models.MoodCategory, error) {
	rows, err := s.pg.QueryContext(ctx, `
		SELECT id, name, emoji, color, description, sort_order, is_active
		FROM mood_categories WHERE is_active = TRUE ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list mood categories: %w", err)
	}
	defer rows.Close()

	categories := []models.MoodCategory{}
	for rows.Next() {
		var c models.MoodCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.Color, &c.Description, &c.SortOrder, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan mood category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Factors lists the active mood factors.
func (s *MoodService) Factors(ctx context.Context) ([]models.MoodFactor, error) {
	rows, err := s.pg.QueryContext(ctx, `
		SELECT id, name, factor_type, is_active
		FROM mood_factors WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list mood factors: %w", err)
	}
	defer rows.Close()

	factors := []models.MoodFactor{}
	for rows.Next() {
		var f models.MoodFactor
		if err := rows.Scan(&f.ID, &f.Name, &f.FactorType, &f.IsActive); err != nil {
			return nil, fmt.Errorf("scan mood factor: %w", err)
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

// Record validates and stores a mood entry, denormalizing the category name
// for query speed.
func (s *MoodService) Record(ctx context.Context, userID string, entry *models.MoodEntry) (*models.MoodEntry, map[string]string, error) {
	if errs := models.ValidateMoodEntry(entry); len(errs) > 0 {
		return nil, errs, nil
	}

	if entry.CategoryID != "" && entry.CategoryName == "" {
		var name, emoji string
		err := s.pg.QueryRowContext(ctx,
			`SELECT name, emoji FROM mood_categories WHERE id = $1 AND is_active = TRUE`,
			entry.CategoryID).Scan(&name, &emoji)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, map[string]string{"category_id": "unknown mood category"}, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load mood category: %w", err)
		}
		entry.CategoryName = name
		entry.Emoji = emoji
	}

	now := time.Now().UTC()
	entry.UserID = userID
	entry.CreatedAt = now
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = now
	}

	res, err := s.entries().InsertOne(ctx, entry)
	if err != nil {
		return nil, nil, fmt.Errorf("insert mood entry: %w", err)
	}
	entry.ID = res.InsertedID.(primitive.ObjectID)
	return entry, nil, nil
}

// List returns mood entries newest first, optionally within a date range.
func (s *MoodService) List(ctx context.Context, userID string, from, to *time.Time, page, limit int) ([]models.MoodEntry, int64, error) {
	filter := bson.M{"user_id": userID}
	if from != nil || to != nil {
		dateRange := bson.M{}
		if from != nil {
			dateRange["$gte"] = *from
		}
		if to != nil {
			dateRange["$lte"] = *to
		}
		filter["recorded_at"] = dateRange
	}

	total, err := s.entries().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count mood entries: %w", err)
	}

	opts := optionsFindPage(page, limit, bson.D{{Key: "recorded_at", Value: -1}})
	cursor, err := s.entries().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list mood entries: %w", err)
	}
	defer cursor.Close(ctx)

	result := []models.MoodEntry{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("decode mood entries: %w", err)
	}
	return result, total, nil
}

// MoodSummary is the per-category aggregate over a window.
type MoodSummary struct {
	CategoryName     string  `json:"category_name"`
	Emoji            string  `json:"emoji,omitempty"`
	Count            int     `json:"count"`
	AverageIntensity float64 `json:"average_intensity"`
}

// Summary aggregates mood entries by category over the trailing window.
func (s *MoodService) Summary(ctx context.Context, userID string, days int) ([]MoodSummary, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	cursor, err := s.entries().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id":     userID,
			"recorded_at": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":               "$category_name",
			"emoji":             bson.M{"$first": "$emoji"},
			"count":             bson.M{"$sum": 1},
			"average_intensity": bson.M{"$avg": "$intensity"},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate moods: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Category         string  `bson:"_id"`
		Emoji            string  `bson:"emoji"`
		Count            int     `bson:"count"`
		AverageIntensity float64 `bson:"average_intensity"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode mood summary: %w", err)
	}

	summary := make([]MoodSummary, 0, len(rows))
	for _, r := range rows {
		summary = append(summary, MoodSummary{
			CategoryName:     r.Category,
			Emoji:            r.Emoji,
			Count:            r.Count,
			AverageIntensity: r.AverageIntensity,
		})
	}
	return summary, nil
}

// Delete removes one mood entry with ownership enforcement.
func (s *MoodService) Delete(ctx context.Context, userID, entryID string) error {
	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return ErrNotFound
	}
	var entry models.MoodEntry
	if err := s.entries().FindOne(ctx, bson.M{"_id": oid}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("load mood entry: %w", err)
	}
	if entry.UserID != userID {
		return ErrForbidden
	}
	if _, err := s.entries().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete mood entry: %w", err)
	}
	return nil
}
