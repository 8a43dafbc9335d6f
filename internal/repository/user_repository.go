package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id,name,email,password_hash,role,reset_token_hash,reset_token_expires_at,is_active,created_at,updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		resetHash sql.NullString
		resetExp  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&resetHash, &resetExp, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if resetHash.Valid {
		u.ResetTokenHash = &resetHash.String
	}
	if resetExp.Valid {
		u.ResetTokenExpiresAt = &resetExp.Time
	}
	return u, nil
}

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile changes the display name and, when newEmail is non-empty,
// the email address.  A clash on the new email surfaces as ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, newEmail string) error {
	if newEmail != "" {
		newEmail = strings.ToLower(strings.TrimSpace(newEmail))
		_, err := r.DB.ExecContext(ctx,
			"UPDATE users SET name=?, email=? WHERE id=?", name, newEmail, id)
		if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", name, id)
	return err
}

// SetResetToken stores the hash and expiry of a freshly issued password
// reset token, replacing any earlier one.
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_expires_at=? WHERE id=?",
		tokenHash, exp, userID)
	return err
}

// GetByResetToken returns the user whose stored reset token hash matches
// and has not expired yet.  sql.ErrNoRows covers both an unknown token
// and an expired one so callers cannot probe which case occurred.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash=? AND reset_token_expires_at > UTC_TIMESTAMP() LIMIT 1",
		tokenHash))
}

// UpdatePassword replaces the password hash and clears any pending reset
// token in the same statement.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token_hash=NULL, reset_token_expires_at=NULL WHERE id=?",
		hash, userID)
	return err
}

// GetCustomer fetches a CUSTOMER account by id, used by the admin
// promotion endpoint.  Unknown ids and non-customer accounts both come
// back as ErrUserNotFound.
func (r *UserRepo) GetCustomer(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND role='CUSTOMER' LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// CustomerSummary is a customer row for the admin listing, with the
// number of reservations the customer has placed.
type CustomerSummary struct {
	ID               uint64    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	ReservationCount uint64    `json:"reservation_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListCustomers returns all CUSTOMER accounts with reservation counts,
// newest first.
func (r *UserRepo) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, COUNT(r.id), u.created_at
		 FROM users u
		 LEFT JOIN reservations r ON r.user_id = u.id
		 WHERE u.role = 'CUSTOMER'
		 GROUP BY u.id, u.name, u.email, u.created_at
		 ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CustomerSummary, 0)
	for rows.Next() {
		var c CustomerSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ReservationCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountCustomers returns the number of CUSTOMER accounts for the
// dashboard.
func (r *UserRepo) CountCustomers(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role='CUSTOMER'").Scan(&n)
	return n, err
}
