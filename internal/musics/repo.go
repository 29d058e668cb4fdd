package musics

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists musics and their payment codes.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a music.
func (r *Repository) Create(ctx context.Context, music *models.Music) error {
	return r.db.WithContext(ctx).Create(music).Error
}

// FindByID loads a music with its artist.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Music, error) {
	var music models.Music
	if err := r.db.WithContext(ctx).Preload("Artist").First(&music, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &music, nil
}

// FindOwned loads a music only when artistID owns it.
func (r *Repository) FindOwned(ctx context.Context, artistID, id int64) (*models.Music, error) {
	var music models.Music
	if err := r.db.WithContext(ctx).
		Where("id = ? AND artist_id = ?", id, artistID).
		First(&music).Error; err != nil {
		return nil, err
	}
	return &music, nil
}

// ListByArtist returns every music of artistID, newest first.
func (r *Repository) ListByArtist(ctx context.Context, artistID int64) ([]models.Music, error) {
	var rows []models.Music
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns musics matching filter with their artists, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.Music, error) {
	query := r.db.WithContext(ctx).Model(&models.Music{}).Preload("Artist")
	if filter.PublishedOnly {
		query = query.Where("status = ?", enums.MusicStatusPublished)
	} else if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		query = query.Where("LOWER(genre) LIKE ?", "%"+strings.ToLower(genre)+"%")
	}
	if filter.IsFree != nil {
		query = query.Where("is_free = ?", *filter.IsFree)
	}
	if filter.ArtistID != nil {
		query = query.Where("artist_id = ?", *filter.ArtistID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", like, like)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", filter.MinPrice.InexactFloat64())
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", filter.MaxPrice.InexactFloat64())
	}

	var rows []models.Music
	err := query.
		Scopes(pagination.Params{Skip: filter.Skip, Limit: filter.Limit}.Scope).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Save persists every column and stamps updated_at.
func (r *Repository) Save(ctx context.Context, music *models.Music, at time.Time) error {
	music.UpdatedAt = &at
	return r.db.WithContext(ctx).Omit("Artist").Save(music).Error
}

// SetStatus moves a music to status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status enums.MusicStatus, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Music{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"status": status, "updated_at": at}).Error
}

// Delete removes the music and the rows that reference it.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchaseIDs := tx.Model(&models.Purchase{}).Select("id").Where("music_id = ?", id)
		if err := tx.Where("purchase_id IN (?)", purchaseIDs).Delete(&models.DownloadLog{}).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Purchase{}, &models.Favorite{}, &models.PlayHistory{}, &models.PaymentCode{}} {
			if err := tx.Where("music_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Music{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CreateCode inserts a payment code.
func (r *Repository) CreateCode(ctx context.Context, code *models.PaymentCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// CodeExists reports whether code is already issued.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentCode{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListCodes returns payment codes, newest first. A nil artistID lists all.
func (r *Repository) ListCodes(ctx context.Context, artistID *int64) ([]models.PaymentCode, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentCode{})
	if artistID != nil {
		query = query.Where("music_id IN (?)", r.db.Model(&models.Music{}).Select("id").Where("artist_id = ?", *artistID))
	}
	var rows []models.PaymentCode
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
