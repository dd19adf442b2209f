package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const uniqueViolation = "23505"

type Store interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	Delete(ctx context.Context, id int64) error
	SetOTP(ctx context.Context, id int64, code string, expiry time.Time) error
	MarkVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, id int64, fullName string, dob *time.Time) (*Account, error)
	GetPreferences(ctx context.Context, userID int64) (*Preferences, error)
	UpsertPreferences(ctx context.Context, p *Preferences) (*Preferences, error)
}

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, full_name, username, email, password_hash, date_of_birth,
	email_verified, verification_otp, otp_expiry, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *Account) error {
	row := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (full_name, username, email, password_hash, date_of_birth, email_verified, verification_otp, otp_expiry)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
		RETURNING id, created_at, updated_at`,
		a.FullName, a.Username, a.Email, a.PasswordHash, a.DateOfBirth, a.VerificationOTP, a.OTPExpiry,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	a.EmailVerified = false
	return nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := s.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Account, error) {
	var a Account
	err := s.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetOTP(ctx context.Context, id int64, code string, expiry time.Time) error {
	return s.execOne(ctx, "set otp",
		`UPDATE users SET verification_otp = $1, otp_expiry = $2, updated_at = NOW() WHERE id = $3`,
		code, expiry, id)
}

func (s *PostgresStore) MarkVerified(ctx context.Context, id int64) error {
	return s.execOne(ctx, "mark verified",
		`UPDATE users SET email_verified = TRUE, verification_otp = NULL, otp_expiry = NULL, updated_at = NOW() WHERE id = $1`,
		id)
}

// UpdatePassword stores a new hash and clears any outstanding code.
func (s *PostgresStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.execOne(ctx, "update password",
		`UPDATE users SET password_hash = $1, verification_otp = NULL, otp_expiry = NULL, updated_at = NOW() WHERE id = $2`,
		hash, id)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id int64, fullName string, dob *time.Time) (*Account, error) {
	var a Account
	err := s.db.GetContext(ctx, &a,
		`UPDATE users SET full_name = $1, date_of_birth = $2, updated_at = NOW() WHERE id = $3
		RETURNING `+accountColumns,
		fullName, dob, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &a, nil
}

const preferenceColumns = `user_id, COALESCE(diet_type, '') AS diet_type, allergies, cuisines,
	COALESCE(skill_level, '') AS skill_level, COALESCE(meal_goal, '') AS meal_goal,
	COALESCE(health_goal, '') AS health_goal, created_at, updated_at`

func (s *PostgresStore) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	var p Preferences
	err := s.db.GetContext(ctx, &p, `SELECT `+preferenceColumns+` FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &p, nil
}

// UpsertPreferences replaces the whole record for the user.
func (s *PostgresStore) UpsertPreferences(ctx context.Context, p *Preferences) (*Preferences, error) {
	var out Preferences
	err := s.db.GetContext(ctx, &out,
		`INSERT INTO user_preferences (user_id, diet_type, allergies, cuisines, skill_level, meal_goal, health_goal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			diet_type = EXCLUDED.diet_type,
			allergies = EXCLUDED.allergies,
			cuisines = EXCLUDED.cuisines,
			skill_level = EXCLUDED.skill_level,
			meal_goal = EXCLUDED.meal_goal,
			health_goal = EXCLUDED.health_goal,
			updated_at = NOW()
		RETURNING `+preferenceColumns,
		p.UserID, p.DietType, pq.StringArray(nonNil(p.Allergies)), pq.StringArray(nonNil(p.Cuisines)),
		p.SkillLevel, p.MealGoal, p.HealthGoal)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
