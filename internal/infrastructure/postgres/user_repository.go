package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/internal/domain/repository"
	"github.com/hexcontexts/user-service/pkg/metrics"
)

const uniqueViolation = "23505"

const usersTable = "users"

// UserRepository is the pgx implementation of repository.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, username, first_name, last_name, hashed_password, is_active, created_at, updated_at`

// Save upserts the aggregate by id. Unique violations on email or username
// surface as domain.ErrConflict.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	start := time.Now()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, username, first_name, last_name, hashed_password, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			hashed_password = EXCLUDED.hashed_password,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, u.ID(), u.Email().String(), u.Username().String(), u.FullName().First(), u.FullName().Last(),
		u.HashedPassword().String(), u.IsActive(), u.CreatedAt(), u.UpdatedAt())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			metrics.RecordDBOperation("save", usersTable, "conflict", time.Since(start).Seconds())
			return nil, domain.Conflictf("user violates unique constraint %s", pgErr.ConstraintName)
		}
		metrics.RecordDBOperation("save", usersTable, "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordDBOperation("save", usersTable, "success", time.Since(start).Seconds())
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "find_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "find_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "find_by_username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, query, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.RecordDBOperation(op, usersTable, "not_found", time.Since(start).Seconds())
			return nil, domain.NotFoundf("user %v not found", arg)
		}
		metrics.RecordDBOperation(op, usersTable, "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordDBOperation(op, usersTable, "success", time.Since(start).Seconds())
	return u, nil
}

// List pages users ordered by creation time ascending; the id tiebreak keeps
// offset pagination stable for rows created in the same instant.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		metrics.RecordDBOperation("list", usersTable, "error", time.Since(start).Seconds())
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			metrics.RecordDBOperation("list", usersTable, "error", time.Since(start).Seconds())
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBOperation("list", usersTable, "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordDBOperation("list", usersTable, "success", time.Since(start).Seconds())
	return users, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.pool.QueryRow(ctx, query, arg).Scan(&exists)
	if err != nil {
		metrics.RecordDBOperation("exists", usersTable, "error", time.Since(start).Seconds())
		return false, err
	}
	metrics.RecordDBOperation("exists", usersTable, "success", time.Since(start).Seconds())
	return exists, nil
}

// Count reports the total number of users for pagination.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		metrics.RecordDBOperation("count", usersTable, "error", time.Since(start).Seconds())
		return 0, err
	}
	metrics.RecordDBOperation("count", usersTable, "success", time.Since(start).Seconds())
	return count, nil
}

// CountActive supports the active_users_total gauge.
func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		id, email, username, first, last, hashed string
		active                                   bool
		createdAt, updatedAt                     time.Time
	)
	if err := row.Scan(&id, &email, &username, &first, &last, &hashed, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return rebuildUser(id, email, username, first, last, hashed, active, createdAt, updatedAt)
}

// rebuildUser reconstitutes the aggregate from stored columns. Stored rows
// already passed validation on the way in, so a failure here means the row
// was tampered with outside the application.
func rebuildUser(id, email, username, first, last, hashed string, active bool, createdAt, updatedAt time.Time) (*entity.User, error) {
	em, err := entity.NewEmail(email)
	if err != nil {
		return nil, err
	}
	un, err := entity.NewUsername(username)
	if err != nil {
		return nil, err
	}
	fn, err := entity.NewFullName(first, last)
	if err != nil {
		return nil, err
	}
	hp, err := entity.NewHashedPassword(hashed)
	if err != nil {
		return nil, err
	}
	return entity.Reconstitute(id, em, un, fn, hp, active, createdAt, updatedAt), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
