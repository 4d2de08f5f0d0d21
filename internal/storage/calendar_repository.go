package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/social-apps/backend/internal/storage/models"
)

// CalendarRepository provides data access for calendar entries.
type CalendarRepository struct {
	BaseRepository
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(q Queryable) *CalendarRepository {
	return &CalendarRepository{
		BaseRepository: NewBaseRepository(q),
	}
}

const calendarColumns = `id, user_id, title, description, reminder, date_start, date_end, all_day, created_at`

// Create inserts a new entry and sets its ID.
func (r *CalendarRepository) Create(ctx context.Context, e *models.CalendarEntry) error {
	e.CreatedAt = r.Now()

	res, err := r.DB().ExecContext(ctx, `
		INSERT INTO calendar_entries (
			user_id, title, description, reminder, date_start, date_end, all_day, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.UserID, e.Title, e.Description, e.Reminder,
		models.FormatStorage(e.DateStart), models.FormatStorage(e.DateEnd),
		e.AllDay, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading calendar entry id: %w", err)
	}
	e.ID = id

	return nil
}

// Update writes all mutable columns of an existing entry.
func (r *CalendarRepository) Update(ctx context.Context, e *models.CalendarEntry) error {
	res, err := r.DB().ExecContext(ctx, `
		UPDATE calendar_entries SET
			user_id = ?, title = ?, description = ?, reminder = ?,
			date_start = ?, date_end = ?, all_day = ?
		WHERE id = ?
	`,
		e.UserID, e.Title, e.Description, e.Reminder,
		models.FormatStorage(e.DateStart), models.FormatStorage(e.DateEnd),
		e.AllDay, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating calendar entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating calendar entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Store inserts the entry when it is new and updates it otherwise.
func (r *CalendarRepository) Store(ctx context.Context, e *models.CalendarEntry) error {
	if e.IsNew() {
		return r.Create(ctx, e)
	}
	return r.Update(ctx, e)
}

// GetByID retrieves an entry by its ID.
func (r *CalendarRepository) GetByID(ctx context.Context, id int64) (*models.CalendarEntry, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+calendarColumns+`
		FROM calendar_entries WHERE id = ?
	`, id)

	e, err := scanCalendarEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying calendar entry: %w", err)
	}

	return e, nil
}

// Delete removes an entry.
func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB().ExecContext(ctx, `DELETE FROM calendar_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting calendar entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting calendar entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUserInRange returns the user's entries that overlap [from, to).
func (r *CalendarRepository) ListByUserInRange(ctx context.Context, userID int64, from, to time.Time) ([]models.CalendarEntry, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+calendarColumns+`
		FROM calendar_entries
		WHERE user_id = ? AND date_start < ? AND date_end >= ?
		ORDER BY date_start, id
	`, userID, models.FormatStorage(to), models.FormatStorage(from))
	if err != nil {
		return nil, fmt.Errorf("querying calendar entries: %w", err)
	}
	defer rows.Close()

	return scanCalendarEntries(rows)
}

// ListByUser returns every entry owned by the user.
func (r *CalendarRepository) ListByUser(ctx context.Context, userID int64) ([]models.CalendarEntry, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+calendarColumns+`
		FROM calendar_entries
		WHERE user_id = ?
		ORDER BY date_start, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying calendar entries: %w", err)
	}
	defer rows.Close()

	return scanCalendarEntries(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalendarEntry(s rowScanner) (*models.CalendarEntry, error) {
	var (
		e          models.CalendarEntry
		start, end string
	)
	if err := s.Scan(
		&e.ID, &e.UserID, &e.Title, &e.Description, &e.Reminder,
		&start, &end, &e.AllDay, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if e.DateStart, err = models.ParseStorage(start); err != nil {
		return nil, fmt.Errorf("parsing date_start: %w", err)
	}
	if e.DateEnd, err = models.ParseStorage(end); err != nil {
		return nil, fmt.Errorf("parsing date_end: %w", err)
	}

	return &e, nil
}

func scanCalendarEntries(rows *sql.Rows) ([]models.CalendarEntry, error) {
	var entries []models.CalendarEntry
	for rows.Next() {
		e, err := scanCalendarEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar entry: %w", err)
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating calendar entries: %w", err)
	}

	return entries, nil
}
