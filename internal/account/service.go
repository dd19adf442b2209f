package account

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"cookmate/internal/auth"
	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
	"cookmate/internal/platform/mailer"
	"cookmate/internal/recipe"
)

// rollbackTimeout bounds the compensating delete after a failed send, which
// runs detached from the request context.
const rollbackTimeout = 5 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	store  Store
	mail   mailer.Mailer
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
	otpTTL time.Duration
	log    *logger.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func NewService(store Store, mail mailer.Mailer, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, otpTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		mail:    mail,
		hasher:  hasher,
		tokens:  tokens,
		otpTTL:  otpTTL,
		log:     log.With("service", "AccountService"),
		now:     time.Now,
		newCode: auth.GenerateOTP,
	}
}

// Register creates an unverified account and emails its verification code.
// If the email cannot be sent the account is removed again; that removal is
// best-effort and only logged on failure.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)
	if fullName == "" || email == "" || in.Password == "" {
		return nil, apierr.Validation("missing_fields", "All fields are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, apierr.Validation("invalid_email", "Invalid email format")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, duplicateEmail()
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apierr.Internal(err, "register lookup")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apierr.Internal(err, "register")
	}
	code, expiry, err := s.issueCode()
	if err != nil {
		return nil, apierr.Internal(err, "register")
	}

	acc := &Account{
		FullName:        fullName,
		Username:        strings.SplitN(email, "@", 2)[0],
		Email:           email,
		PasswordHash:    hash,
		DateOfBirth:     in.DateOfBirth,
		VerificationOTP: &code,
		OTPExpiry:       &expiry,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, duplicateEmail()
		}
		return nil, apierr.Internal(err, "register create")
	}

	if err := s.sendCode(ctx, mailer.PurposeVerify, acc, code); err != nil {
		if delErr := s.rollback(ctx, acc.ID); delErr != nil {
			s.log.Error("rollback of unverified account failed", "user_id", acc.ID, "error", delErr)
		}
		return nil, &apierr.Error{
			Kind: apierr.KindInternal,
			Code: "email_send_failed",
			Msg:  "Failed to send verification email. Please try again.",
			Err:  err,
		}
	}

	s.log.Info("account registered", "user_id", acc.ID)
	return acc, nil
}

func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return apierr.Validation("missing_fields", "Email and OTP are required")
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if acc.EmailVerified {
		return apierr.Validation("already_verified", "Email already verified")
	}
	if err := s.checkCode(acc, code, "OTP has expired. Please request a new one.", "Invalid OTP"); err != nil {
		return err
	}
	if err := s.store.MarkVerified(ctx, acc.ID); err != nil {
		return apierr.Internal(err, "verify")
	}
	s.log.Info("email verified", "user_id", acc.ID)
	return nil
}

func (s *Service) Resend(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apierr.Validation("missing_fields", "Email is required")
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if acc.EmailVerified {
		return apierr.Validation("already_verified", "Email already verified")
	}
	return s.reissue(ctx, mailer.PurposeVerify, acc)
}

// Login checks credentials before verification state so that an unknown
// caller cannot learn whether an address is registered but unverified.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apierr.Validation("missing_fields", "Email and password are required")
	}
	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, apierr.Internal(err, "login lookup")
	}
	ok, err := s.hasher.Compare(acc.PasswordHash, password)
	if err != nil {
		return nil, apierr.Internal(err, "login")
	}
	if !ok {
		return nil, invalidCredentials()
	}
	if !acc.EmailVerified {
		return nil, apierr.Forbidden("email_not_verified", "Please verify your email before logging in")
	}

	token, err := s.tokens.Issue(acc.ID, acc.Email)
	if err != nil {
		return nil, apierr.Internal(err, "login token")
	}
	s.log.Info("user logged in", "user_id", acc.ID)
	return &Session{Token: token, Account: acc}, nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apierr.Validation("missing_fields", "Email is required")
	}
	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apierr.NotFound("account_not_found", "No account found with this email")
		}
		return apierr.Internal(err, "forgot password lookup")
	}
	return s.reissue(ctx, mailer.PurposeReset, acc)
}

func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return apierr.Validation("missing_fields", "All fields are required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkCode(acc, code, "Reset code has expired. Please request a new one.", "Invalid reset code"); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apierr.Internal(err, "reset password")
	}
	if err := s.store.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return apierr.Internal(err, "reset password")
	}
	s.log.Info("password reset", "user_id", acc.ID)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apierr.Validation("missing_fields", "Both passwords required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	acc, err := s.byID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Compare(acc.PasswordHash, oldPassword)
	if err != nil {
		return apierr.Internal(err, "change password")
	}
	if !ok {
		return apierr.Validation("wrong_password", "Old password is incorrect")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apierr.Internal(err, "change password")
	}
	if err := s.store.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return apierr.Internal(err, "change password")
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	acc, err := s.byID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prof := &Profile{Account: *acc}
	prefs, err := s.store.GetPreferences(ctx, userID)
	switch {
	case err == nil:
		prof.Preferences = prefs
	case !errors.Is(err, ErrNotFound):
		return nil, apierr.Internal(err, "profile preferences")
	}
	return prof, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, fullName string, dob *time.Time) (*Account, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apierr.Validation("missing_fields", "Full name is required")
	}
	acc, err := s.store.UpdateProfile(ctx, userID, fullName, dob)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, apierr.Internal(err, "update profile")
	}
	return acc, nil
}

// SavePreferences replaces the caller's preference record. List entries are
// trimmed and blanks dropped.
func (s *Service) SavePreferences(ctx context.Context, p Preferences) (*Preferences, error) {
	p.DietType = strings.TrimSpace(p.DietType)
	p.Allergies = cleanList(p.Allergies)
	p.Cuisines = cleanList(p.Cuisines)
	saved, err := s.store.UpsertPreferences(ctx, &p)
	if err != nil {
		return nil, apierr.Internal(err, "save preferences")
	}
	return saved, nil
}

func (s *Service) Preferences(ctx context.Context, userID int64) (*Preferences, error) {
	p, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apierr.NotFound("preferences_not_found", "No preferences saved")
		}
		return nil, apierr.Internal(err, "get preferences")
	}
	return p, nil
}

// RecipePreferences exposes the stored preferences as a recipe filter, or
// nil when the user never saved any.
func (s *Service) RecipePreferences(ctx context.Context, userID int64) (*recipe.PreferenceFilter, error) {
	p, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipe.PreferenceFilter{
		DietType:  p.DietType,
		MealGoal:  p.MealGoal,
		Cuisines:  p.Cuisines,
		Allergies: realEntries(p.Allergies),
	}, nil
}

func (s *Service) reissue(ctx context.Context, purpose mailer.Purpose, acc *Account) error {
	code, expiry, err := s.issueCode()
	if err != nil {
		return apierr.Internal(err, "issue code")
	}
	if err := s.store.SetOTP(ctx, acc.ID, code, expiry); err != nil {
		return apierr.Internal(err, "store code")
	}
	if err := s.sendCode(ctx, purpose, acc, code); err != nil {
		return &apierr.Error{Kind: apierr.KindInternal, Code: "email_send_failed", Msg: "Failed to send email. Please try again.", Err: err}
	}
	return nil
}

func (s *Service) issueCode() (string, time.Time, error) {
	code, err := s.newCode()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, s.now().Add(s.otpTTL), nil
}

func (s *Service) sendCode(ctx context.Context, purpose mailer.Purpose, acc *Account, code string) error {
	msg, err := mailer.OTPMessage(purpose, acc.Email, acc.FullName, code, s.otpTTL)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("otp email failed", "user_id", acc.ID, "error", err)
		return err
	}
	return nil
}

// checkCode rejects an expired code before comparing it.
func (s *Service) checkCode(acc *Account, code, expiredMsg, mismatchMsg string) error {
	if acc.VerificationOTP == nil || acc.OTPExpiry == nil {
		return apierr.Validation("invalid_code", mismatchMsg)
	}
	if s.now().After(*acc.OTPExpiry) {
		return apierr.Validation("code_expired", expiredMsg)
	}
	if *acc.VerificationOTP != strings.TrimSpace(code) {
		return apierr.Validation("invalid_code", mismatchMsg)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, email string) (*Account, error) {
	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, apierr.Internal(err, "account lookup")
	}
	return acc, nil
}

func (s *Service) byID(ctx context.Context, id int64) (*Account, error) {
	acc, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound()
		}
		return nil, apierr.Internal(err, "account lookup")
	}
	return acc, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func realEntries(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" && !IsPlaceholder(v) {
			out = append(out, v)
		}
	}
	return out
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func userNotFound() error { return apierr.NotFound("user_not_found", "User not found") }

func duplicateEmail() error {
	return apierr.Conflict("email_taken", "User already exists with this email")
}

func (s *Service) rollback(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	return s.store.Delete(ctx, id)
}

// checkPassword enforces the length bounds bcrypt can hash.
func checkPassword(pw string) error {
	switch {
	case len(pw) < auth.MinPasswordLength:
		return apierr.Validation("weak_password", "Password must be at least 6 characters")
	case len(pw) > auth.MaxPasswordLength:
		return apierr.Validation("password_too_long", "Password must be at most 72 bytes")
	}
	return nil
}

func invalidCredentials() error {
	return apierr.Unauthorized("invalid_credentials", "Invalid email or password")
}
