package library

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/pagination"
	"gorm.io/gorm"
)

var (
	// ErrCodeTaken means the voucher was redeemed concurrently.
	ErrCodeTaken = errors.New("library: payment code already used")
	// ErrQuotaExhausted means the purchase has no downloads left.
	ErrQuotaExhausted = errors.New("library: download quota exhausted")
)

// Repository persists a client's library.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindMusic loads a music with its artist.
func (r *Repository) FindMusic(ctx context.Context, id int64) (*models.Music, error) {
	var music models.Music
	if err := r.db.WithContext(ctx).Preload("Artist").First(&music, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &music, nil
}

// FindCompletedPurchase returns the client's completed purchase of musicID.
func (r *Repository) FindCompletedPurchase(ctx context.Context, clientID, musicID int64) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND music_id = ? AND status = ?", clientID, musicID, enums.PaymentStatusCompleted).
		First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindCode loads a voucher by its value.
func (r *Repository) FindCode(ctx context.Context, code string) (*models.PaymentCode, error) {
	var out models.PaymentCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Redeem marks the code used by the purchase's client and inserts the
// purchase in one transaction.
func (r *Repository) Redeem(ctx context.Context, code *models.PaymentCode, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentCode{}).
			Where("id = ? AND is_used = ?", code.ID, false).
			UpdateColumns(map[string]any{
				"is_used":           true,
				"used_at":           purchase.PurchasedAt,
				"used_by_client_id": purchase.ClientID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCodeTaken
		}
		return tx.Omit("Music").Create(purchase).Error
	})
}

// ListPurchases returns the client's purchases with their musics, newest first.
func (r *Repository) ListPurchases(ctx context.Context, clientID int64) ([]models.Purchase, error) {
	var rows []models.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Music").Preload("Music.Artist").
		Where("client_id = ?", clientID).
		Order("purchased_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RecordDownload consumes one download of purchase, when given, and bumps the
// music's download counter.
func (r *Repository) RecordDownload(ctx context.Context, musicID int64, purchase *models.Purchase, meta DownloadMeta, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if purchase != nil {
			res := tx.Model(&models.Purchase{}).
				Where("id = ? AND download_count < max_downloads", purchase.ID).
				UpdateColumn("download_count", gorm.Expr("download_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrQuotaExhausted
			}
			entry := &models.DownloadLog{
				PurchaseID:   purchase.ID,
				DownloadedAt: at,
				IPAddress:    optional(meta.IPAddress),
				UserAgent:    optional(meta.UserAgent),
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Music{}).
			Where("id = ?", musicID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
	})
}

// RecordPlay stores a listening session. countPlay also bumps the music's
// play counter.
func (r *Repository) RecordPlay(ctx context.Context, entry *models.PlayHistory, countPlay bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if countPlay {
			if err := tx.Model(&models.Music{}).
				Where("id = ?", entry.MusicID).
				UpdateColumn("play_count", gorm.Expr("play_count + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Omit("Music").Create(entry).Error
	})
}

// ListHistory returns a page of the user's sessions, newest first.
func (r *Repository) ListHistory(ctx context.Context, userID int64, page pagination.Params) ([]models.PlayHistory, error) {
	var rows []models.PlayHistory
	if err := r.db.WithContext(ctx).
		Preload("Music").
		Where("user_id = ?", userID).
		Scopes(page.Scope).
		Order("played_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FavoriteExists reports whether the user already bookmarked musicID.
func (r *Repository) FavoriteExists(ctx context.Context, userID, musicID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND music_id = ?", userID, musicID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateFavorite inserts a bookmark.
func (r *Repository) CreateFavorite(ctx context.Context, favorite *models.Favorite) error {
	return r.db.WithContext(ctx).Omit("Music").Create(favorite).Error
}

// ListFavorites returns the user's bookmarks, newest first.
func (r *Repository) ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error) {
	var rows []models.Favorite
	if err := r.db.WithContext(ctx).
		Preload("Music").Preload("Music.Artist").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteFavorite removes the user's bookmark id.
func (r *Repository) DeleteFavorite(ctx context.Context, userID, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
