package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/social-apps/backend/internal/storage/models"
)

// UserRepository provides data access for user accounts.
type UserRepository struct {
	BaseRepository
}

// NewUserRepository creates a new user repository.
func NewUserRepository(q Queryable) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(q),
	}
}

const userColumns = `id, username, email, password_hash, name, created_at, updated_at`

// Create inserts a new user and sets its ID.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.CreatedAt = r.Now()
	u.UpdatedAt = u.CreatedAt

	res, err := r.DB().ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.Name, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	u.ID = id

	return nil
}

// Update writes the profile columns of an existing user.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = r.Now()

	res, err := r.DB().ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, name = ?, updated_at = ?
		WHERE id = ?
	`, u.Username, u.Email, u.Name, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username, ignoring case.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	err := r.DB().QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// EmailExists reports whether any account uses email, ignoring case.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(1) FROM users WHERE email = ? COLLATE NOCASE
	`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting users by email: %w", err)
	}
	return n > 0, nil
}

// UsernameExists reports whether an account other than exceptID uses username.
func (r *UserRepository) UsernameExists(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int
	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(1) FROM users WHERE username = ? COLLATE NOCASE AND id != ?
	`, username, exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting users by username: %w", err)
	}
	return n > 0, nil
}

// List returns all users ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB().QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}
