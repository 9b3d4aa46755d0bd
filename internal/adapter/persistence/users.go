package persistence

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	"gorm.io/gorm"
)

// CreateUser inserts the account and its default preferences in one
// transaction. A taken username yields domain.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	var m userModel
	m.fromDomain(u)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&userModel{}).Where("username = ?", m.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return gorm.ErrDuplicatedKey
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		var prefs preferencesModel
		prefs.fromDomain(domain.DefaultPreferences(m.ID))
		return tx.Create(&prefs).Error
	})
	if err != nil {
		return domain.User{}, translate(err, fmt.Sprintf("create user %q", u.Username))
	}
	return m.toDomain(), nil
}

// UserByID loads an account by ID.
func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return domain.User{}, translate(err, "get user by id")
	}
	return m.toDomain(), nil
}

// UserByUsername loads an account by its exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).First(&m, "username = ?", username).Error; err != nil {
		return domain.User{}, translate(err, "get user by username")
	}
	return m.toDomain(), nil
}
