package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moneta/internal/models"
)

// DBStore keeps codes in the verification_codes table so that every API
// replica sees the same pending codes.
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStore creates a store backed by db.
func NewDBStore(db *gorm.DB, opts ...Option) *DBStore {
	o := buildOptions(opts)
	return &DBStore{db: db, now: o.now}
}

// Put upserts the code for email with a fresh expiry.
func (s *DBStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	now := s.now().UTC()
	row := &models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "attempts", "expires_at", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("storing verification code: %w", err)
	}
	return nil
}

// Get returns the live code for email or ErrNotFound. Rows past their expiry
// are ignored even if Sweep has not removed them yet.
func (s *DBStore) Get(ctx context.Context, email string) (string, error) {
	var row models.VerificationCode
	err := s.db.WithContext(ctx).
		Where("email = ? AND expires_at > ?", email, s.now().UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("loading verification code: %w", err)
	}
	return row.Code, nil
}

// Fail bumps the attempt counter of the live row for email and returns it.
func (s *DBStore) Fail(ctx context.Context, email string) (int, error) {
	now := s.now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("email = ? AND expires_at > ?", email, now).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if result.Error != nil {
		return 0, fmt.Errorf("counting failed verification attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var row models.VerificationCode
	err := s.db.WithContext(ctx).Select("attempts").Where("email = ?", email).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("loading verification attempts: %w", err)
	}
	return row.Attempts, nil
}

// Delete removes the code for email.
func (s *DBStore) Delete(ctx context.Context, email string) error {
	if err := s.db.WithContext(ctx).Where("email = ?", email).Delete(&models.VerificationCode{}).Error; err != nil {
		return fmt.Errorf("deleting verification code: %w", err)
	}
	return nil
}

// Sweep deletes expired rows.
func (s *DBStore) Sweep(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now().UTC()).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("sweeping verification codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Run sweeps expired rows every interval until ctx is cancelled.
func (s *DBStore) Run(ctx context.Context, interval time.Duration) {
	runJanitor(ctx, s, interval)
}
