package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dotk/api/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventFilter struct {
	Category string
	Search   string
}

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `
	id, title, description, start_date, end_date, location, category,
	video_url, thumbnail, file_path, file_type, cta_text, cta_link,
	show_on_homepage, created_by, updated_by, created_at, updated_at`

func scanEvent(row pgx.Row) (models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.Location,
		&e.Category, &e.VideoURL, &e.Thumbnail, &e.FilePath, &e.FileType,
		&e.CTAText, &e.CTALink, &e.ShowOnHomepage, &e.CreatedBy, &e.UpdatedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Event{}, ErrEventNotFound
	}
	return e, err
}

func (r *EventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	query := `SELECT` + eventColumns + ` FROM events`

	var conditions []string
	var args []any

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", n, n, n))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_date DESC"

	return r.queryEvents(ctx, query, args...)
}

func (r *EventRepository) Get(ctx context.Context, id int64) (models.Event, error) {
	query := `SELECT` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, query, id))
}

func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	const query = `
		INSERT INTO events (
			title, description, start_date, end_date, location, category,
			video_url, thumbnail, file_path, file_type, cta_text, cta_link,
			show_on_homepage, created_by, updated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		e.Title, e.Description, e.StartDate, e.EndDate, e.Location, e.Category,
		e.VideoURL, e.Thumbnail, e.FilePath, e.FileType, e.CTAText, e.CTALink,
		e.ShowOnHomepage, e.CreatedBy, e.UpdatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	const query = `
		UPDATE events
		SET title = $2, description = $3, start_date = $4, end_date = $5,
		    location = $6, category = $7, video_url = $8, thumbnail = $9,
		    file_path = $10, file_type = $11, cta_text = $12, cta_link = $13,
		    show_on_homepage = $14, updated_by = $15, updated_at = NOW()
		WHERE id = $1`

	cmd, err := r.pool.Exec(ctx, query,
		e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.Location,
		e.Category, e.VideoURL, e.Thumbnail, e.FilePath, e.FileType,
		e.CTAText, e.CTALink, e.ShowOnHomepage, e.UpdatedBy,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ListHomepage returns events flagged for the homepage carousel,
// soonest first.
func (r *EventRepository) ListHomepage(ctx context.Context, limit int) ([]models.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM events WHERE show_on_homepage ORDER BY start_date ASC LIMIT $1`
	return r.queryEvents(ctx, query, limit)
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
