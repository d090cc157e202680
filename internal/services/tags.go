package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// ErrDuplicate marks unique-constraint violations surfaced as 409s.
var ErrDuplicate = errors.New("duplicate")

// TagService manages the per-user tag catalog in the relational ledger.
type TagService struct {
	pg *sql.DB
}

func NewTagService(pg *sql.DB) *TagService {
	return &TagService{pg: pg}
}

// Create inserts a tag; names are unique per user, case preserved.
func (s *TagService) Create(ctx context.Context, userID uuid.UUID, name, color string) (*models.Tag, map[string]string, error) {
	name = strings.TrimSpace(name)
	if errs := validateTag(name, color); len(errs) > 0 {
		return nil, errs, nil
	}
	if color == "" {
		color = "#3B82F6"
	}

	tag := &models.Tag{UserID: userID, Name: name, Color: color}
	err := s.pg.QueryRowContext(ctx, `
		INSERT INTO tags (user_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, userID, name, color).
		Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, nil, fmt.Errorf("%w: tag %q already exists", ErrDuplicate, name)
		}
		return nil, nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil, nil
}

func validateTag(name, color string) map[string]string {
	errs := map[string]string{}
	if name == "" {
		errs["name"] = "name is required"
	} else if len(name) > 50 {
		errs["name"] = "name must be at most 50 characters"
	}
	if color != "" && (len(color) != 7 || color[0] != '#') {
		errs["color"] = "color must be a hex value like #3B82F6"
	}
	return errs
}

// List returns the user's tags alphabetically.
func (s *TagService) List(ctx context.Context, userID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.pg.QueryContext(ctx, `
		SELECT id, created_at, user_id, name, color
		FROM tags WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Update renames or recolors a tag.
func (s *TagService) Update(ctx context.Context, userID, tagID uuid.UUID, name, color string) (*models.Tag, map[string]string, error) {
	name = strings.TrimSpace(name)
	if errs := validateTag(name, color); len(errs) > 0 {
		return nil, errs, nil
	}

	tag := &models.Tag{ID: tagID, UserID: userID, Name: name, Color: color}
	err := s.pg.QueryRowContext(ctx, `
		UPDATE tags SET name = $3, color = COALESCE(NULLIF($4, ''), color)
		WHERE id = $1 AND user_id = $2
		RETURNING created_at, color`, tagID, userID, name, color).
		Scan(&tag.CreatedAt, &tag.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, nil, fmt.Errorf("%w: tag %q already exists", ErrDuplicate, name)
		}
		return nil, nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil, nil
}

// Delete removes a tag. Entries keep the dangling tag id; there is no
// cross-store cascade.
func (s *TagService) Delete(ctx context.Context, userID, tagID uuid.UUID) error {
	res, err := s.pg.ExecContext(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_id = $2`, tagID, userID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
