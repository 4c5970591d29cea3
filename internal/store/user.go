package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mixhub/apiserver/types"
)

const uniqueViolation = "23505"

// UserRepository handles persistence for users. All single-row mutations of
// credential fields are single UPDATE statements so concurrent password and
// reset-token changes cannot lose each other's writes.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, role, password_hash, password_changed_at,
		password_reset_token_hash, password_reset_expires_at, created_at, updated_at`

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&user.PasswordChangedAt,
		&user.PasswordResetTokenHash,
		&user.PasswordResetExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.User{}, err
	}
	if err := r.loadSavedDrinks(ctx, &user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, normalizeEmail(email)))
	if err != nil {
		return types.User{}, err
	}
	if err := r.loadSavedDrinks(ctx, &user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// GetByResetTokenHash finds the user holding a live reset token. Expired and
// unknown hashes are indistinguishable: both return ErrNotFound.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE password_reset_token_hash = $1 AND password_reset_expires_at > $2`
	return scanUser(r.db.QueryRowContext(ctx, query, tokenHash, now))
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]types.User, int, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Role,
			&user.PasswordHash,
			&user.PasswordChangedAt,
			&user.PasswordResetTokenHash,
			&user.PasswordResetExpiresAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (username, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

// Update writes the non-credential fields of a user.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.Email = normalizeEmail(user.Email)
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			role = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.Role, user.UpdatedAt, user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	if err := requireAffected(result); err != nil {
		return types.User{}, err
	}
	return r.GetByID(ctx, user.ID)
}

// UpdatePassword replaces the password hash, bumps password_changed_at and
// clears any outstanding reset token in one atomic statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string, changedAt time.Time) error {
	const query = `
		UPDATE users
		SET password_hash = $1,
			password_changed_at = $2,
			password_reset_token_hash = NULL,
			password_reset_expires_at = NULL,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, passwordHash, changedAt, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetResetToken stores a reset token hash and its absolute expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, id int, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users
		SET password_reset_token_hash = $1,
			password_reset_expires_at = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ClearResetToken removes an outstanding reset token, e.g. after a failed
// delivery so no unreachable live token remains.
func (r *UserRepository) ClearResetToken(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET password_reset_token_hash = NULL,
			password_reset_expires_at = NULL,
			updated_at = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *UserRepository) AddSavedDrink(ctx context.Context, userID, drinkID int) error {
	const query = `
		INSERT INTO saved_drinks (user_id, drink_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, drink_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, userID, drinkID)
	return err
}

func (r *UserRepository) RemoveSavedDrink(ctx context.Context, userID, drinkID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM saved_drinks WHERE user_id = $1 AND drink_id = $2`, userID, drinkID)
	return err
}

func (r *UserRepository) loadSavedDrinks(ctx context.Context, user *types.User) error {
	rows, err := r.db.QueryContext(ctx, `SELECT drink_id FROM saved_drinks WHERE user_id = $1 ORDER BY drink_id`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var drinkID int
		if err := rows.Scan(&drinkID); err != nil {
			return err
		}
		user.SavedDrinkIDs = append(user.SavedDrinkIDs, drinkID)
	}
	return rows.Err()
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
