package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/appointment-booking-backend/internal/calendar"
	"github.com/nekogravitycat/appointment-booking-backend/internal/catalog"
	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
)

const (
	constraintNoOverlap  = "appointments_no_overlap"
	constraintClientCode = "appointments_business_client_code_key"
)

// errStatusChanged reports that an optimistic status update found the
// appointment in a different status than expected.
var errStatusChanged = errors.New("appointment status changed concurrently")

// Guard runs inside the booking transaction with the freshly read blocking
// appointments of the new appointment's date. A non-nil error aborts the insert.
type Guard func(active []*Appointment) error

type Repository interface {
	// CreateExclusive inserts a as pending. Bookings of one business are
	// serialized, and guard sees every blocking appointment committed before it.
	CreateExclusive(ctx context.Context, a *Appointment, guard Guard) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	GetByClientCode(ctx context.Context, businessID, code string) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]*Appointment, int, error)
	// ListActive returns the blocking appointments of a business overlapping [from, to).
	ListActive(ctx context.Context, businessID string, from, to time.Time) ([]*Appointment, error)
	// UpdateStatus moves the appointment from -> to only if it is still in from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error)
	// CountQualifying counts non-cancelled appointments starting in [from, to).
	CountQualifying(ctx context.Context, businessID string, from, to time.Time) (int, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var appointmentColumns = []string{
	"id", "business_id", "service_id", "service_name", "duration_minutes", "price",
	"client_name", "client_contact", "client_email", "client_code",
	"start_time", "end_time", "status", "created_at", "updated_at",
}

func (r *pgxRepository) CreateExclusive(ctx context.Context, a *Appointment, guard Guard) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking transaction failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	// Row lock on the business: concurrent bookings of one business queue here.
	lockQuery, lockArgs, err := psql.Select("id").
		From("public.businesses").
		Where(squirrel.Eq{"id": a.BusinessID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build business lock query failed: %w", err)
	}
	var locked string
	if err := tx.QueryRow(ctx, lockQuery, lockArgs...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ErrBusinessNotFound
		}
		return fmt.Errorf("lock business failed: %w", err)
	}

	day := calendar.Date(a.StartTime)
	active, err := listActive(ctx, tx, a.BusinessID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if err := guard(active); err != nil {
		return err
	}

	insertQuery, insertArgs, err := psql.Insert("public.appointments").
		Columns(
			"business_id", "service_id", "service_name", "duration_minutes", "price",
			"client_name", "client_contact", "client_email", "client_code",
			"start_time", "end_time", "status",
		).
		Values(
			a.BusinessID, a.ServiceID, a.ServiceName, a.DurationMinutes, db.Numeric(a.Price),
			a.ClientName, a.ClientContact, nullable(a.ClientEmail), a.ClientCode,
			a.StartTime, a.EndTime, a.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create appointment query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, insertQuery, insertArgs...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsExclusionViolation(err, constraintNoOverlap):
		return ErrConflict
	case db.IsUniqueViolation(err, constraintClientCode):
		return ErrClientCodeTaken
	}
	return fmt.Errorf("create appointment failed: %w", err)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetByClientCode(ctx context.Context, businessID, code string) (*Appointment, error) {
	return r.getOne(ctx, squirrel.Eq{"business_id": businessID, "client_code": strings.ToUpper(code)})
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From("public.appointments").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query failed: %w", err)
	}

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment failed: %w", err)
	}
	return a, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(appointmentColumns, "count(*) OVER() AS total_count")...).
		From("public.appointments").
		Where(squirrel.Eq{"business_id": filter.BusinessID})

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"start_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"start_time": *filter.To})
	}

	orderDir := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		orderDir = "DESC"
	}
	query = query.OrderBy("start_time " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list appointments query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments failed: %w", err)
	}
	defer rows.Close()

	var (
		items []*Appointment
		total int
	)
	for rows.Next() {
		a, err := scanAppointment(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan appointment failed: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list appointments failed: %w", err)
	}
	return items, total, nil
}

func (r *pgxRepository) ListActive(ctx context.Context, businessID string, from, to time.Time) ([]*Appointment, error) {
	return listActive(ctx, r.pool, businessID, from, to)
}

func listActive(ctx context.Context, q querier, businessID string, from, to time.Time) ([]*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(appointmentColumns...).
		From("public.appointments").
		Where(squirrel.Eq{"business_id": businessID, "status": BlockingStatuses}).
		Where(squirrel.Lt{"start_time": to}).
		Where(squirrel.Gt{"end_time": from}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active appointments query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active appointments failed: %w", err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment failed: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active appointments failed: %w", err)
	}
	return items, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + strings.Join(appointmentColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update appointment status query failed: %w", err)
	}

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either gone or no longer in from; the caller re-reads to tell.
			return nil, errStatusChanged
		}
		return nil, fmt.Errorf("update appointment status failed: %w", err)
	}
	return a, nil
}

func (r *pgxRepository) CountQualifying(ctx context.Context, businessID string, from, to time.Time) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.appointments").
		Where(squirrel.Eq{"business_id": businessID}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		Where(squirrel.GtOrEq{"start_time": from}).
		Where(squirrel.Lt{"start_time": to}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count appointments query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments failed: %w", err)
	}
	return n, nil
}

// scanAppointment scans appointmentColumns followed by any extra destinations.
func scanAppointment(row pgx.Row, extra ...any) (*Appointment, error) {
	var (
		a     Appointment
		price pgtype.Numeric
		email pgtype.Text
	)
	dest := []any{
		&a.ID, &a.BusinessID, &a.ServiceID, &a.ServiceName, &a.DurationMinutes, &price,
		&a.ClientName, &a.ClientContact, &email, &a.ClientCode,
		&a.StartTime, &a.EndTime, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	a.Price = db.Decimal(price)
	a.ClientEmail = email.String
	return &a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
