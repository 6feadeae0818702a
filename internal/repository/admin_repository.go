package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"stellarreg/api/internal/models"
)

var (
	ErrAdminNotFound     = errors.New("admin not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

const adminColumns = `id, username, password_hash, session_token_hash, session_expires_at, created_at, updated_at`

func (r *AdminRepository) Create(ctx context.Context, admin models.AdminAccount) error {
	const query = `
		INSERT INTO admins (id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, admin.ID, admin.Username, admin.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// SetPassword rotates the password of an existing admin and drops its session.
func (r *AdminRepository) SetPassword(ctx context.Context, username string, passwordHash []byte) error {
	const query = `
		UPDATE admins
		SET password_hash = $2,
		    session_token_hash = NULL,
		    session_expires_at = NULL,
		    updated_at = NOW()
		WHERE username = $1
	`
	cmd, err := r.pool.Exec(ctx, query, username, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (models.AdminAccount, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE username = $1`
	return scanAdmin(r.pool.QueryRow(ctx, query, username))
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (models.AdminAccount, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return scanAdmin(r.pool.QueryRow(ctx, query, id))
}

// UpdateSession replaces whatever session the admin had. A single UPDATE keeps
// the swap atomic per row; concurrent logins resolve as last write wins.
func (r *AdminRepository) UpdateSession(ctx context.Context, id string, tokenHash []byte, expiresAt time.Time) error {
	const query = `
		UPDATE admins
		SET session_token_hash = $2,
		    session_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// ClearSession drops the session only if it is still the one identified by
// tokenHash, so a logout racing a fresh login cannot evict the newer session.
func (r *AdminRepository) ClearSession(ctx context.Context, id string, tokenHash []byte) error {
	const query = `
		UPDATE admins
		SET session_token_hash = NULL,
		    session_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND session_token_hash = $2
	`
	_, err := r.pool.Exec(ctx, query, id, tokenHash)
	return err
}

func (r *AdminRepository) ClearExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE admins
		SET session_token_hash = NULL,
		    session_expires_at = NULL,
		    updated_at = NOW()
		WHERE session_expires_at IS NOT NULL AND session_expires_at <= $1
	`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanAdmin(row pgx.Row) (models.AdminAccount, error) {
	var admin models.AdminAccount
	if err := row.Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.SessionTokenHash,
		&admin.SessionExpiresAt,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminAccount{}, ErrAdminNotFound
		}
		return models.AdminAccount{}, err
	}
	return admin, nil
}
