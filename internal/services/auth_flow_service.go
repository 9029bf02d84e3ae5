package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/validator"
	"moneta/internal/verification"
)

// DefaultResetTokenTTL bounds the gap between verifying a reset code and
// submitting the new password.
const DefaultResetTokenTTL = 10 * time.Minute

// AuthFlowConfig tunes the lifetimes used by the code flows. Zero values
// select the defaults.
type AuthFlowConfig struct {
	CodeTTL       time.Duration
	ResetTokenTTL time.Duration
}

// authFlowService implements registration confirmation and password reset
// on top of the user directory and a verification code store.
type authFlowService struct {
	users      UserServicer
	store      verification.Store
	codes      verification.Generator
	dispatcher CodeDispatcher
	audit      AuditServicer
	codeTTL    time.Duration
	resetTTL   time.Duration
}

// NewAuthFlowService creates a new AuthFlowServicer.
func NewAuthFlowService(
	users UserServicer,
	store verification.Store,
	codes verification.Generator,
	dispatcher CodeDispatcher,
	audit AuditServicer,
	cfg AuthFlowConfig,
) AuthFlowServicer {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = verification.DefaultTTL
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	return &authFlowService{
		users:      users,
		store:      store,
		codes:      codes,
		dispatcher: dispatcher,
		audit:      audit,
		codeTTL:    cfg.CodeTTL,
		resetTTL:   cfg.ResetTokenTTL,
	}
}

// RequestRegistration creates an inactive account for a new email, or reuses
// the pending one, then issues and dispatches a confirmation code. An
// already confirmed email fails with DuplicateAccount and gets no code.
func (s *authFlowService) RequestRegistration(ctx context.Context, fullname, email, password string) error {
	email = NormalizeEmail(email)

	fields := map[string][]string{}
	if problems := validator.CheckEmail(email); problems != nil {
		fields["email"] = problems
	}
	if problems := validator.CheckPassword(password); problems != nil {
		fields["password"] = problems
	}
	if len(fields) > 0 {
		return apperrors.WithFields(fields)
	}

	// A pending user takes the password and name of the latest request.
	user, err := s.users.CreatePendingUser(fullname, email, password)
	if err != nil {
		return err
	}
	if user.IsActive {
		return apperrors.ErrDuplicateAccount
	}

	return s.issueCode(ctx, email)
}

// ConfirmRegistration activates the account owning email when code matches
// the one issued for it. The code is consumed on success.
func (s *authFlowService) ConfirmRegistration(ctx context.Context, email, code string) (*models.User, error) {
	email = NormalizeEmail(email)

	if err := s.checkCode(ctx, email, code); err != nil {
		return nil, err
	}

	user, err := s.lookup(email)
	if err != nil {
		return nil, err
	}

	if err := s.consumeCode(ctx, email); err != nil {
		return nil, err
	}

	if !user.IsActive {
		if err := s.users.Activate(user.ID); err != nil {
			return nil, err
		}
		user.IsActive = true
		s.audit.Record(AuditEvent{
			ActorID:      user.ID,
			Action:       ActionRegistrationConfirmed,
			ResourceType: "user",
			ResourceID:   user.ID,
		})
	}
	return user, nil
}

// RequestPasswordReset issues a reset code for any existing account and
// returns the normalised email. Unknown emails fail with the generic
// EmailNotFound error and get no code. A pending account shares the code key
// with its registration, so the reset code replaces the registration code.
func (s *authFlowService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	if _, err := s.lookup(email); err != nil {
		return "", err
	}

	if err := s.issueCode(ctx, email); err != nil {
		return "", err
	}
	return email, nil
}

// VerifyPasswordReset checks a reset code and, on success, consumes it and
// returns the token that ResetPassword requires.
func (s *authFlowService) VerifyPasswordReset(ctx context.Context, email, code string) (string, error) {
	email = NormalizeEmail(email)

	if err := s.checkCode(ctx, email, code); err != nil {
		return "", err
	}

	user, err := s.lookup(email)
	if err != nil {
		return "", err
	}

	if err := s.consumeCode(ctx, email); err != nil {
		return "", err
	}

	token, err := middleware.GenerateResetToken(user, s.resetTTL)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return token, nil
}

// ResetPassword overwrites the password of email. resetToken must come from
// VerifyPasswordReset for the same account and is void once the password
// has changed.
func (s *authFlowService) ResetPassword(ctx context.Context, email, resetToken, newPassword string) error {
	email = NormalizeEmail(email)

	if problems := validator.CheckPassword(newPassword); problems != nil {
		return apperrors.WithFields(map[string][]string{"password": problems})
	}

	if resetToken == "" {
		return apperrors.ErrResetNotVerified
	}
	claims, err := middleware.ValidateResetToken(resetToken, email)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrResetNotVerified, err)
	}

	user, err := s.lookup(email)
	if err != nil {
		return err
	}
	if claims.UserID != user.ID || claims.Fingerprint != middleware.PasswordFingerprint(user.Password) {
		return apperrors.ErrResetNotVerified
	}

	if err := s.users.SetPassword(user.ID, newPassword); err != nil {
		return err
	}

	s.audit.Record(AuditEvent{
		ActorID:      user.ID,
		Action:       ActionPasswordReset,
		ResourceType: "user",
		ResourceID:   user.ID,
	})
	return nil
}

// issueCode stores a fresh code under email, replacing any previous one, and
// hands it to the dispatcher without waiting for delivery.
func (s *authFlowService) issueCode(ctx context.Context, email string) error {
	code := strconv.Itoa(s.codes.Next())
	if err := s.store.Put(ctx, email, code, s.codeTTL); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.dispatcher.Dispatch(email, code)
	return nil
}

// checkCode compares the submitted code with the stored one as strings.
// A missing entry, whether never issued or expired, is CodeExpired. A code
// is dropped after verification.MaxAttempts wrong guesses, so later attempts
// see CodeExpired until a new one is requested.
func (s *authFlowService) checkCode(ctx context.Context, email, code string) error {
	stored, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			return apperrors.ErrCodeExpired
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(stored)) == 1 {
		return nil
	}

	attempts, err := s.store.Fail(ctx, email)
	if err != nil && !errors.Is(err, verification.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if attempts >= verification.MaxAttempts {
		logger.Get().Warnw("verification code dropped after repeated failures", "email", email, "attempts", attempts)
		if err := s.store.Delete(ctx, email); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return apperrors.ErrIncorrectCode
}

func (s *authFlowService) consumeCode(ctx context.Context, email string) error {
	if err := s.store.Delete(ctx, email); err != nil {
		logger.Get().Errorw("failed to delete verification code", "email", email, "error", err)
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// lookup maps a missing account to the generic EmailNotFound error.
func (s *authFlowService) lookup(email string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrEmailNotFound
		}
		return nil, err
	}
	return user, nil
}
