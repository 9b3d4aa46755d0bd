package persistence

import (
	"context"
	"errors"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"gorm.io/gorm"
)

// Preferences returns the user's settings, creating the defaults row when
// the account predates it.
func (s *Store) Preferences(ctx context.Context, userID string) (domain.UserPreferences, error) {
	var m preferencesModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return firstOrCreatePreferences(tx, userID, &m)
	})
	if err != nil {
		return domain.UserPreferences{}, translate(err, "get preferences")
	}
	return m.toDomain(), nil
}

// UpdatePreferences applies patch to the stored settings. The patch must
// already be validated.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, patch domain.PreferencesPatch) (domain.UserPreferences, error) {
	var m preferencesModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := firstOrCreatePreferences(tx, userID, &m); err != nil {
			return err
		}
		m.fromDomain(patch.Apply(m.toDomain()))
		return tx.Save(&m).Error
	})
	if err != nil {
		return domain.UserPreferences{}, translate(err, "update preferences")
	}
	return m.toDomain(), nil
}

func firstOrCreatePreferences(tx *gorm.DB, userID string, m *preferencesModel) error {
	err := tx.Where("user_id = ?", userID).First(m).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var owner int64
	if err := tx.Model(&userModel{}).Where("id = ?", userID).Count(&owner).Error; err != nil {
		return err
	}
	if owner == 0 {
		return gorm.ErrRecordNotFound
	}

	m.fromDomain(domain.DefaultPreferences(userID))
	return tx.Create(m).Error
}
