package account

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Account is a registered user. Secrets never leave the package in JSON.
type Account struct {
	ID              int64      `json:"id" db:"id"`
	FullName        string     `json:"full_name" db:"full_name"`
	Username        string     `json:"username" db:"username"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	EmailVerified   bool       `json:"email_verified" db:"email_verified"`
	VerificationOTP *string    `json:"-" db:"verification_otp"`
	OTPExpiry       *time.Time `json:"-" db:"otp_expiry"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

type Preferences struct {
	UserID     int64          `json:"user_id" db:"user_id"`
	DietType   string         `json:"diet_type" db:"diet_type"`
	Allergies  pq.StringArray `json:"allergies" db:"allergies"`
	Cuisines   pq.StringArray `json:"cuisines" db:"cuisines"`
	SkillLevel string         `json:"skill_level" db:"skill_level"`
	MealGoal   string         `json:"meal_goal" db:"meal_goal"`
	HealthGoal string         `json:"health_goal" db:"health_goal"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// Profile is an account with its preferences, if any were saved.
type Profile struct {
	Account
	Preferences *Preferences `json:"preferences"`
}

type RegisterInput struct {
	FullName    string
	Email       string
	Password    string
	DateOfBirth *time.Time
}

type Session struct {
	Token   string   `json:"token"`
	Account *Account `json:"user"`
}

// placeholder values some clients send for "no preference"
var placeholderValues = map[string]struct{}{
	"none":   {},
	"(none)": {},
}

// IsPlaceholder reports whether v means "no value" rather than a real entry.
func IsPlaceholder(v string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
