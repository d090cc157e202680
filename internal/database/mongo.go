package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Document store collection names.
const (
	CollJournalEntries     = "journal_entries"
	CollMoodEntries        = "mood_entries"
	CollFocusSessions      = "focus_sessions"
	CollReflectionSessions = "reflection_sessions"
	CollProgramDayProgress = "program_day_progress"
	CollProgramProgress    = "program_progress"
	CollDailyPromptSets    = "daily_prompt_sets"
	CollPromptResponses    = "prompt_responses"
	CollPremiumStreaks     = "premium_streaks"
)

// ConnectMongo connects to the document store and returns the client plus the
// database named in the URI (default "mindnotes").
func ConnectMongo(mongoURI string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(databaseName(mongoURI)), nil
}

func databaseName(mongoURI string) string {
	dbName := "mindnotes"
	if mongoURI == "" {
		return dbName
	}
	// Format: mongodb://.../database_name?...
	parts := strings.Split(mongoURI, "/")
	if len(parts) > 3 {
		dbPart := strings.Split(parts[len(parts)-1], "?")[0]
		if dbPart != "" {
			dbName = dbPart
		}
	}
	return dbName
}

// EnsureMongoIndexes creates the indexes every query path relies on. The
// partial unique index on focus_sessions backstops the check-then-act race on
// "one non-terminal session per user": the loser of a race gets a
// duplicate-key error at insert time.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	nonTerminal := bson.M{"status": bson.M{"$in": bson.A{"active", "paused"}}}

	indexes := map[string][]mongo.IndexModel{
		CollJournalEntries: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "entry_date", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_favorite", Value: 1}}},
		},
		CollMoodEntries: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "recorded_at", Value: -1}}},
		},
		CollFocusSessions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "started_at", Value: -1}}},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(nonTerminal),
			},
		},
		CollReflectionSessions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "flow", Value: 1}, {Key: "session_date", Value: -1}}},
			{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "flow", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(nonTerminal),
			},
		},
		CollProgramDayProgress: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "enrollment_id", Value: 1}, {Key: "day_number", Value: 1}}},
		},
		CollProgramProgress: {
			{Keys: bson.D{{Key: "enrollment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollDailyPromptSets: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollPromptResponses: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "answered_at", Value: -1}}},
		},
		CollPremiumStreaks: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// DisconnectMongo closes the document store connection.
func DisconnectMongo(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
