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

// JournalService stores entries in the document store and keeps the
// relational per-user counters roughly in sync.
type JournalService struct {
	mongo *mongo.Database
	pg    *sql.DB
}

func NewJournalService(mdb *mongo.Database, pg *sql.DB) *JournalService {
	return &JournalService{mongo: mdb, pg: pg}
}

func (s *JournalService) entries() *mongo.Collection {
	return s.mongo.Collection(database.CollJournalEntries)
}

// Create validates and inserts an entry, computes derived stats server side,
// and bumps the profile entry counter and completion streak.
func (s *JournalService) Create(ctx context.Context, userID string, entry *models.JournalEntry) (*models.JournalEntry, map[string]string, error) {
	if entry.EntryType == "" {
		entry.EntryType = models.EntryTypeText
	}
	if entry.Privacy == "" {
		entry.Privacy = s.defaultPrivacy(ctx, userID)
	}
	if errs := models.ValidateJournalEntry(entry); len(errs) > 0 {
		return nil, errs, nil
	}

	now := time.Now().UTC()
	entry.UserID = userID
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.EntryDate.IsZero() {
		entry.EntryDate = now
	}
	entry.ComputeStats()

	res, err := s.entries().InsertOne(ctx, entry)
	if err != nil {
		return nil, nil, fmt.Errorf("insert entry: %w", err)
	}
	entry.ID = res.InsertedID.(primitive.ObjectID)

	if err := s.bumpCounters(ctx, userID, now); err != nil {
		return nil, nil, err
	}
	return entry, nil, nil
}

func (s *JournalService) defaultPrivacy(ctx context.Context, userID string) string {
	var privacy string
	err := s.pg.QueryRowContext(ctx,
		`SELECT default_entry_privacy FROM user_profiles WHERE user_id = $1`, userID).Scan(&privacy)
	if err != nil || privacy == "" {
		return models.PrivacyPrivate
	}
	return privacy
}

func (s *JournalService) bumpCounters(ctx context.Context, userID string, now time.Time) error {
	tx, err := s.pg.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin counter update: %w", err)
	}
	defer tx.Rollback()

	var current, longest int
	var lastCompletion *time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT current_streak, longest_streak, last_completion_date
		FROM user_profiles WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&current, &longest, &lastCompletion)
	if errors.Is(err, sql.ErrNoRows) {
		return tx.Commit()
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	newCurrent := AdvanceStreak(current, lastCompletion, now)
	newLongest := LongestStreak(longest, newCurrent)

	_, err = tx.ExecContext(ctx, `
		UPDATE user_profiles
		SET total_entries = total_entries + 1,
			current_streak = $2,
			longest_streak = $3,
			last_completion_date = $4,
			updated_at = NOW()
		WHERE user_id = $1`,
		userID, newCurrent, newLongest, dateOnly(now))
	if err != nil {
		return fmt.Errorf("bump counters: %w", err)
	}
	return tx.Commit()
}

// ListFilter narrows the entry listing.
type ListFilter struct {
	EntryType string
	TagID     string
	Favorite  *bool
	Archived  *bool
	Search    string
	From      *time.Time
	To        *time.Time
}

// List returns the user's entries newest first with the total count.
func (s *JournalService) List(ctx context.Context, userID string, f ListFilter, page, limit int) ([]models.JournalEntry, int64, error) {
	filter := bson.M{"user_id": userID}
	if f.EntryType != "" {
		filter["entry_type"] = f.EntryType
	}
	if f.TagID != "" {
		filter["tag_ids"] = f.TagID
	}
	if f.Favorite != nil {
		filter["is_favorite"] = *f.Favorite
	}
	if f.Archived != nil {
		filter["is_archived"] = *f.Archived
	} else {
		filter["is_archived"] = false
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"content": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if f.From != nil || f.To != nil {
		dateRange := bson.M{}
		if f.From != nil {
			dateRange["$gte"] = *f.From
		}
		if f.To != nil {
			dateRange["$lte"] = *f.To
		}
		filter["entry_date"] = dateRange
	}

	total, err := s.entries().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	opts := optionsFindPage(page, limit, bson.D{{Key: "entry_date", Value: -1}})
	cursor, err := s.entries().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	defer cursor.Close(ctx)

	result := []models.JournalEntry{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("decode entries: %w", err)
	}
	return result, total, nil
}

// Get loads one entry with ownership enforcement.
func (s *JournalService) Get(ctx context.Context, userID, entryID string) (*models.JournalEntry, error) {
	oid, err := primitive.ObjectIDFromHex(entryID)
	if err != nil {
		return nil, ErrNotFound
	}
	var entry models.JournalEntry
	if err := s.entries().FindOne(ctx, bson.M{"_id": oid}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load entry: %w", err)
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return &entry, nil
}

// Update applies a partial update and recomputes derived stats.
func (s *JournalService) Update(ctx context.Context, userID, entryID string, patch *models.JournalEntry) (*models.JournalEntry, map[string]string, error) {
	existing, err := s.Get(ctx, userID, entryID)
	if err != nil {
		return nil, nil, err
	}

	if patch.Title != "" {
		existing.Title = patch.Title
	}
	if patch.Content != "" {
		existing.Content = patch.Content
	}
	if patch.Privacy != "" {
		existing.Privacy = patch.Privacy
	}
	if patch.TagIDs != nil {
		existing.TagIDs = patch.TagIDs
	}
	if patch.Photos != nil {
		existing.Photos = patch.Photos
	}
	if patch.VoiceNotes != nil {
		existing.VoiceNotes = patch.VoiceNotes
	}
	if patch.PromptResponses != nil {
		existing.PromptResponses = patch.PromptResponses
	}
	if patch.LocationName != "" {
		existing.LocationName = patch.LocationName
	}

	if errs := models.ValidateJournalEntry(existing); len(errs) > 0 {
		return nil, errs, nil
	}
	existing.ComputeStats()
	existing.UpdatedAt = time.Now().UTC()

	if _, err := s.entries().ReplaceOne(ctx, bson.M{"_id": existing.ID}, existing); err != nil {
		return nil, nil, fmt.Errorf("update entry: %w", err)
	}
	return existing, nil, nil
}

// SetFavorite toggles the favorite flag.
func (s *JournalService) SetFavorite(ctx context.Context, userID, entryID string, favorite bool) (*models.JournalEntry, error) {
	entry, err := s.Get(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"is_favorite": favorite, "updated_at": time.Now().UTC()}}
	if _, err := s.entries().UpdateByID(ctx, entry.ID, update); err != nil {
		return nil, fmt.Errorf("set favorite: %w", err)
	}
	entry.IsFavorite = favorite
	return entry, nil
}

// SetArchived toggles the archived flag. Archived entries drop out of the
// default listing but are never deleted by this call.
func (s *JournalService) SetArchived(ctx context.Context, userID, entryID string, archived bool) (*models.JournalEntry, error) {
	entry, err := s.Get(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"is_archived": archived, "updated_at": time.Now().UTC()}}
	if _, err := s.entries().UpdateByID(ctx, entry.ID, update); err != nil {
		return nil, fmt.Errorf("set archived: %w", err)
	}
	entry.IsArchived = archived
	return entry, nil
}

// Delete removes the entry and decrements the profile counter.
func (s *JournalService) Delete(ctx context.Context, userID, entryID string) error {
	entry, err := s.Get(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if _, err := s.entries().DeleteOne(ctx, bson.M{"_id": entry.ID}); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	_, err = s.pg.ExecContext(ctx, `
		UPDATE user_profiles
		SET total_entries = GREATEST(total_entries - 1, 0), updated_at = NOW()
		WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("decrement entry count: %w", err)
	}
	return nil
}

// Count returns the user's total entry count.
func (s *JournalService) Count(ctx context.Context, userID string) (int64, error) {
	return s.entries().CountDocuments(ctx, bson.M{"user_id": userID})
}

// CompletionDays returns the distinct entry days for the user, used by streak
// recomputation.
func (s *JournalService) CompletionDays(ctx context.Context, userID string) ([]time.Time, error) {
	cursor, err := s.entries().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$entry_date"}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate entry days: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Day string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode entry days: %w", err)
	}

	days := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Day)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}
