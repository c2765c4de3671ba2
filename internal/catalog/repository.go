package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
)

// Repository reads businesses and services. The catalog is owned by the
// surrounding product; this module never writes it.
type Repository interface {
	GetBusiness(ctx context.Context, id string) (*Business, error)
	GetService(ctx context.Context, id string) (*Service, error)
	ListServices(ctx context.Context, filter ServiceFilter) ([]*Service, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetBusiness(ctx context.Context, id string) (*Business, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "owner_id", "name", "plan_tier", "working_hours", "created_at").
		From("public.businesses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get business query failed: %w", err)
	}

	var b Business
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Plan, &b.Schedule, &b.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("get business failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) GetService(ctx context.Context, id string) (*Service, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(serviceColumns...).
		From("public.services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get service query failed: %w", err)
	}

	s, err := scanService(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) ListServices(ctx context.Context, filter ServiceFilter) ([]*Service, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(serviceColumns...).
		From("public.services").
		Where(squirrel.Eq{"business_id": filter.BusinessID}).
		OrderBy("name ASC")

	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list services query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list services failed: %w", err)
	}
	defer rows.Close()

	var services []*Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service failed: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services failed: %w", err)
	}
	return services, nil
}

var serviceColumns = []string{"id", "business_id", "name", "duration_minutes", "price", "is_active", "created_at"}

func scanService(row pgx.Row) (*Service, error) {
	var (
		s     Service
		price pgtype.Numeric
	)
	if err := row.Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes, &price, &s.IsActive, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Price = db.Decimal(price)
	return &s, nil
}
