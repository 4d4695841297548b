// Package repository contains data access logic for the showtime catalog.
// Rows of the `showtimes` table are mapped onto model.Showtime here and
// nowhere else; DATE and TIME columns are formatted by MySQL into the
// zero-padded "YYYY-MM-DD" and "HH:MM" strings the rest of the service
// compares lexicographically.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// showtimeColumns is the select list shared by every read.  Its order
// matches scanShowtime.
const showtimeColumns = `id, DATE_FORMAT(screening_date, '%Y-%m-%d'), film_external_id,
	TIME_FORMAT(start_time, '%H:%i'), TIME_FORMAT(end_time, '%H:%i'), language,
	subtitle_language, booking_reference, sold_out, title, annotation, created_at, updated_at`

// ShowtimeRepo manages persistence for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// Ping verifies the catalog store is reachable.
func (r *ShowtimeRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShowtime(sc rowScanner) (model.Showtime, error) {
	var (
		s          model.Showtime
		subtitle   sql.NullString
		annotation sql.NullString
	)
	err := sc.Scan(
		&s.ID, &s.ScreeningDate, &s.FilmExternalID,
		&s.StartTime, &s.EndTime, &s.Language,
		&subtitle, &s.BookingReference, &s.SoldOut, &s.Title, &annotation,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.Showtime{}, err
	}
	if subtitle.Valid {
		s.SubtitleLanguage = &subtitle.String
	}
	if annotation.Valid {
		s.Annotation = &annotation.String
	}
	return s, nil
}

// ListOrdered returns the whole catalog ordered by screening date, then
// start time.  An empty catalog yields an empty slice and nil error.
func (r *ShowtimeRepo) ListOrdered(ctx context.Context) ([]model.Showtime, error) {
	q := `SELECT ` + showtimeColumns + ` FROM showtimes ORDER BY screening_date ASC, start_time ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list showtimes: %w", err)
	}
	defer rows.Close()
	out := []model.Showtime{}
	for rows.Next() {
		s, err := scanShowtime(rows)
		if err != nil {
			return nil, fmt.Errorf("scan showtime: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list showtimes: %w", err)
	}
	return out, nil
}

// GetByID retrieves a showtime by its ID.  It returns ErrShowtimeNotFound
// if there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	q := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	s, err := scanShowtime(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, fmt.Errorf("get showtime %d: %w", id, err)
	}
	return &s, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const insertShowtime = `INSERT INTO showtimes
	(screening_date, film_external_id, start_time, end_time, language, subtitle_language,
	 booking_reference, sold_out, title, annotation)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insert(ctx context.Context, ex execer, s *model.Showtime) error {
	res, err := ex.ExecContext(ctx, insertShowtime,
		s.ScreeningDate, s.FilmExternalID, s.StartTime, s.EndTime, s.Language, nullable(s.SubtitleLanguage),
		s.BookingReference, s.SoldOut, s.Title, nullable(s.Annotation),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Create inserts a new showtime and assigns the generated ID back to s.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	if err := insert(ctx, r.db, s); err != nil {
		return fmt.Errorf("create showtime: %w", err)
	}
	return nil
}

// CreateBulk inserts every showtime in one transaction.  Either all rows
// are stored and their IDs assigned, or none are.
func (r *ShowtimeRepo) CreateBulk(ctx context.Context, list []model.Showtime) (err error) {
	if len(list) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	// Ensure rollback or commit at the end
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit bulk insert: %w", cerr)
		}
	}()
	for i := range list {
		if err = insert(ctx, tx, &list[i]); err != nil {
			return fmt.Errorf("bulk insert row %d: %w", i+1, err)
		}
	}
	return nil
}

// Update overwrites every editable field of the showtime s.ID.  It only
// performs the UPDATE when at least one field differs; otherwise it
// returns ErrNoChange.  A missing row yields ErrShowtimeNotFound.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	const q = `UPDATE showtimes
		SET screening_date = ?, film_external_id = ?, start_time = ?, end_time = ?, language = ?,
		    subtitle_language = ?, booking_reference = ?, sold_out = ?, title = ?, annotation = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND (screening_date <> ? OR film_external_id <> ? OR start_time <> ? OR end_time <> ?
		       OR language <> ? OR NOT (subtitle_language <=> ?) OR booking_reference <> ?
		       OR sold_out <> ? OR title <> ? OR NOT (annotation <=> ?))`
	sub, note := nullable(s.SubtitleLanguage), nullable(s.Annotation)
	res, err := r.db.ExecContext(ctx, q,
		s.ScreeningDate, s.FilmExternalID, s.StartTime, s.EndTime, s.Language,
		sub, s.BookingReference, s.SoldOut, s.Title, note,
		s.ID,
		s.ScreeningDate, s.FilmExternalID, s.StartTime, s.EndTime,
		s.Language, sub, s.BookingReference,
		s.SoldOut, s.Title, note,
	)
	if err != nil {
		return fmt.Errorf("update showtime %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.missingOrUnchanged(ctx, s.ID)
}

// SetSoldOut stores the sold-out flag of one showtime.
func (r *ShowtimeRepo) SetSoldOut(ctx context.Context, id uint64, soldOut bool) error {
	const q = `UPDATE showtimes SET sold_out = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND sold_out <> ?`
	return r.patch(ctx, id, q, soldOut, id, soldOut)
}

// SetAnnotation stores or clears (nil) the operator note of one showtime.
func (r *ShowtimeRepo) SetAnnotation(ctx context.Context, id uint64, annotation *string) error {
	const q = `UPDATE showtimes SET annotation = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND NOT (annotation <=> ?)`
	v := nullable(annotation)
	return r.patch(ctx, id, q, v, id, v)
}

func (r *ShowtimeRepo) patch(ctx context.Context, id uint64, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("patch showtime %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.missingOrUnchanged(ctx, id)
}

// missingOrUnchanged tells "no such row" apart from "values identical"
// after an UPDATE that touched nothing.
func (r *ShowtimeRepo) missingOrUnchanged(ctx context.Context, id uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM showtimes WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShowtimeNotFound
	}
	if err != nil {
		return fmt.Errorf("check showtime %d: %w", id, err)
	}
	return ErrNoChange
}

// DeleteByID removes one showtime.  It returns ErrShowtimeNotFound when
// no row matched.
func (r *ShowtimeRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete showtime %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowtimeNotFound
	}
	return nil
}

// DeleteBefore removes every showtime dated strictly before date
// (YYYY-MM-DD) and returns the number of rows removed.
func (r *ShowtimeRepo) DeleteBefore(ctx context.Context, date string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM showtimes WHERE screening_date < ?`, date)
}

// DeleteEndedOn removes the showtimes of date whose end time is at or
// before clock (HH:MM).
func (r *ShowtimeRepo) DeleteEndedOn(ctx context.Context, date, clock string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM showtimes WHERE screening_date = ? AND end_time <= ?`, date, clock)
}

// DeletePast removes every showtime that has ended at now: all earlier
// days plus today's screenings whose end time has passed.  now must be in
// the venue's location.
func (r *ShowtimeRepo) DeletePast(ctx context.Context, now time.Time) (int64, error) {
	today := now.Format(model.DateLayout)
	before, err := r.DeleteBefore(ctx, today)
	if err != nil {
		return 0, err
	}
	ended, err := r.DeleteEndedOn(ctx, today, now.Format(model.ClockLayout))
	if err != nil {
		return before, err
	}
	return before + ended, nil
}

// DeleteAll empties the catalog.
func (r *ShowtimeRepo) DeleteAll(ctx context.Context) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM showtimes`)
}

func (r *ShowtimeRepo) deleteWhere(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("delete showtimes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete showtimes: %w", err)
	}
	return n, nil
}

// nullable maps a nil or blank optional string to SQL NULL.
func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
