package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stellarreg/api/internal/models"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrDuplicateRollNumber  = errors.New("roll number already registered")
)

const uniqueViolation = "23505"

type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

func (r *RegistrationRepository) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	const query = `
		INSERT INTO registrations (id, name, roll_number, email, phone, branch, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		reg.ID,
		reg.Name,
		reg.RollNumber,
		reg.Email,
		reg.Phone,
		reg.Branch,
	).Scan(&reg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Registration{}, ErrDuplicateRollNumber
		}
		return models.Registration{}, err
	}
	return reg, nil
}

func (r *RegistrationRepository) FindByRollNumber(ctx context.Context, rollNumber string) (models.Registration, error) {
	const query = `
		SELECT id, name, roll_number, email, phone, branch, created_at
		FROM registrations WHERE roll_number = $1
	`

	row := r.pool.QueryRow(ctx, query, rollNumber)
	var reg models.Registration
	if err := row.Scan(
		&reg.ID,
		&reg.Name,
		&reg.RollNumber,
		&reg.Email,
		&reg.Phone,
		&reg.Branch,
		&reg.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Registration{}, ErrRegistrationNotFound
		}
		return models.Registration{}, err
	}
	return reg, nil
}

func (r *RegistrationRepository) List(ctx context.Context) ([]models.Registration, error) {
	const query = `
		SELECT id, name, roll_number, email, phone, branch, created_at
		FROM registrations
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.Name,
			&reg.RollNumber,
			&reg.Email,
			&reg.Phone,
			&reg.Branch,
			&reg.CreatedAt,
		); err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}

func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM registrations WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) CountByBranch(ctx context.Context) ([]models.BranchCount, error) {
	const query = `
		SELECT branch, COUNT(*)
		FROM registrations
		GROUP BY branch
		ORDER BY branch
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]models.BranchCount, 0)
	for rows.Next() {
		var bc models.BranchCount
		if err := rows.Scan(&bc.Branch, &bc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, bc)
	}
	return counts, rows.Err()
}
