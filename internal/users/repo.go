package users

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user owning the handle.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(COALESCE(full_name, '')) LIKE ?", like, like, like)
	}

	var users []models.User
	err := query.
		Scopes(pagination.Params{Skip: filter.Skip, Limit: filter.Limit}.Scope).
		Order("created_at DESC").Order("id DESC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Save persists every column of user and stamps updated_at.
func (r *Repository) Save(ctx context.Context, user *models.User, at time.Time) error {
	user.UpdatedAt = &at
	return r.db.WithContext(ctx).Save(user).Error
}

// SetActive flips the account state.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"is_active": active, "updated_at": at}).Error
}

// Delete removes the user and every row hanging off the account.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		musicIDs := tx.Model(&models.Music{}).Select("id").Where("artist_id = ?", id)
		purchaseIDs := tx.Model(&models.Purchase{}).Select("id").Where("client_id = ? OR music_id IN (?)", id, musicIDs)

		steps := []struct {
			model any
			where string
			args  []any
		}{
			{&models.DownloadLog{}, "purchase_id IN (?)", []any{purchaseIDs}},
			{&models.Purchase{}, "client_id = ? OR music_id IN (?)", []any{id, musicIDs}},
			{&models.Favorite{}, "user_id = ? OR music_id IN (?)", []any{id, musicIDs}},
			{&models.PlayHistory{}, "user_id = ? OR music_id IN (?)", []any{id, musicIDs}},
			{&models.PaymentCode{}, "music_id IN (?)", []any{musicIDs}},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, step.args...).Delete(step.model).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.PaymentCode{}).
			Where("used_by_client_id = ?", id).
			UpdateColumn("used_by_client_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("artist_id = ?", id).Delete(&models.Music{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// RevokeToken stores a logged-out token; revoking twice is a no-op.
func (r *Repository) RevokeToken(ctx context.Context, token string, at time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{Token: token, RevokedAt: at}).Error
}

// IsRevoked reports whether token was logged out.
func (r *Repository) IsRevoked(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
