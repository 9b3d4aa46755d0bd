package persistence

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
)

// Favorites lists the user's pinned stations, newest first.
func (s *Store) Favorites(ctx context.Context, userID string) ([]domain.FavoriteLocation, error) {
	var rows []favoriteModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list favorites")
	}

	out := make([]domain.FavoriteLocation, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// AddFavorite pins a station. Pinning the same station twice yields domain.ErrConflict.
func (s *Store) AddFavorite(ctx context.Context, fav domain.FavoriteLocation) (domain.FavoriteLocation, error) {
	m := favoriteModel{
		UserID:    fav.UserID,
		StationID: fav.StationID,
		Name:      fav.Name,
		Latitude:  fav.Latitude,
		Longitude: fav.Longitude,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.FavoriteLocation{}, translate(err, fmt.Sprintf("add favorite %s", fav.StationID))
	}
	return m.toDomain(), nil
}

// RemoveFavorite deletes a favourite owned by userID. Another user's
// favourite is reported as not found.
func (s *Store) RemoveFavorite(ctx context.Context, id int64, userID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&favoriteModel{})
	if res.Error != nil {
		return translate(res.Error, "remove favorite")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("favorite %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
