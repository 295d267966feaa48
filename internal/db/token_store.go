package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/pysugar/tracklens/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenStore persists the single Hubstaff token row.
type TokenStore struct {
	db *gorm.DB
}

// NewTokenStore wraps an initialized database.
func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Load returns the stored token record, or nil if none has been written yet.
func (s *TokenStore) Load(ctx context.Context) (*models.TokenRecord, error) {
	var rec models.TokenRecord
	err := s.db.WithContext(ctx).Where("key = ?", models.HubstaffTokenKey).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token record: %w", err)
	}
	return &rec, nil
}

// Save replaces the stored token record wholesale.
func (s *TokenStore) Save(ctx context.Context, rec *models.TokenRecord) error {
	rec.Key = models.HubstaffTokenKey
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("save token record: %w", err)
	}
	return nil
}
