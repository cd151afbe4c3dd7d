package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightform/userhub/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo implements UserRepository over a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserByEmailSQL = `SELECT id, name, email, password_hash, role, created_at
FROM users
WHERE email = $1`

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, selectUserByEmailSQL, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

const insertUserSQL = `INSERT INTO users (id, name, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, email, password_hash, role, created_at`

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	var inserted domain.User
	err := r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(
		&inserted.ID,
		&inserted.Name,
		&inserted.Email,
		&inserted.PasswordHash,
		&inserted.Role,
		&inserted.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return inserted, nil
}

const listUsersSQL = `SELECT u.id, u.name, u.email, u.password_hash, u.role, u.created_at, t.id, t.name
FROM users u
LEFT JOIN teams t ON t.owner_id = u.id
ORDER BY u.created_at, u.id, t.created_at`

func (r *PostgresUserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var (
		users []domain.User
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			user     domain.User
			teamID   sql.NullString
			teamName sql.NullString
		)
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.CreatedAt,
			&teamID,
			&teamName,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}

		pos, seen := index[user.ID]
		if !seen {
			pos = len(users)
			index[user.ID] = pos
			users = append(users, user)
		}
		if teamID.Valid {
			users[pos].CreatedTeams = append(users[pos].CreatedTeams, domain.Team{
				ID:   teamID.String,
				Name: teamName.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
