package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/soundmarket/pkg/db/models"
)

const (
	platformTotalsSQL = `
SELECT
  (SELECT COUNT(*) FROM users) AS total_users,
  (SELECT COUNT(*) FROM users WHERE is_active = @active) AS active_users,
  (SELECT COUNT(*) FROM users WHERE role = 'ARTISTE') AS total_artists,
  (SELECT COUNT(*) FROM users WHERE role = 'CLIENT') AS total_clients,
  (SELECT COUNT(*) FROM musics) AS total_musics,
  (SELECT COUNT(*) FROM musics WHERE status = 'PUBLISHED') AS published_musics,
  (SELECT COUNT(*) FROM musics WHERE status = 'DRAFT') AS draft_musics,
  (SELECT COUNT(*) FROM musics WHERE status = 'ARCHIVED') AS archived_musics,
  (SELECT COUNT(*) FROM purchases) AS total_purchases,
  (SELECT COALESCE(SUM(amount_paid), 0) FROM purchases) AS total_revenue,
  (SELECT COUNT(*) FROM payment_codes) AS total_payment_codes,
  (SELECT COUNT(*) FROM payment_codes WHERE is_used = @unused AND expires_at > @now) AS active_payment_codes
`

	activitySQL = `
SELECT
  (SELECT COUNT(*) FROM users WHERE created_at >= @start AND created_at < @end) AS new_users,
  (SELECT COUNT(*) FROM musics WHERE created_at >= @start AND created_at < @end) AS new_musics,
  (SELECT COUNT(*) FROM purchases WHERE purchased_at >= @start AND purchased_at < @end) AS recent_purchases,
  (SELECT COUNT(*) FROM play_history WHERE played_at >= @start AND played_at < @end) AS recent_plays
`

	userRankingSQL = `
SELECT
  u.id AS id,
  (SELECT COUNT(*) FROM purchases p WHERE p.client_id = u.id) AS purchase_count,
  (SELECT COUNT(*) FROM favorites f WHERE f.user_id = u.id) AS favorite_count
FROM users u
ORDER BY purchase_count DESC, favorite_count DESC, u.id ASC
LIMIT @limit
`

	musicRankingSQL = `
SELECT
  m.id AS id,
  (SELECT COUNT(*) FROM purchases p WHERE p.music_id = m.id) AS purchase_count,
  (SELECT COUNT(*) FROM favorites f WHERE f.music_id = m.id) AS favorite_count
FROM musics m
ORDER BY purchase_count DESC, favorite_count DESC, m.id ASC
LIMIT @limit
`

	artistCatalogSQL = `
SELECT
  COUNT(*) AS total_musics,
  COALESCE(SUM(CASE WHEN status = 'PUBLISHED' THEN 1 ELSE 0 END), 0) AS published_musics,
  COALESCE(SUM(CASE WHEN status = 'DRAFT' THEN 1 ELSE 0 END), 0) AS draft_musics,
  COALESCE(SUM(play_count), 0) AS total_plays,
  COALESCE(SUM(download_count), 0) AS total_downloads
FROM musics
WHERE artist_id = @artist
`

	artistSalesSQL = `
SELECT
  COUNT(p.id) AS total_sales,
  COALESCE(SUM(p.amount_paid), 0) AS total_revenue
FROM purchases p
JOIN musics m ON m.id = p.music_id
WHERE m.artist_id = @artist
`

	clientTotalsSQL = `
SELECT
  (SELECT COUNT(*) FROM purchases WHERE client_id = @client) AS total_purchases,
  (SELECT COALESCE(SUM(amount_paid), 0) FROM purchases WHERE client_id = @client) AS total_spent,
  (SELECT COALESCE(SUM(download_count), 0) FROM purchases WHERE client_id = @client) AS total_downloads,
  (SELECT COUNT(*) FROM favorites WHERE user_id = @client) AS total_favorites,
  (SELECT COALESCE(SUM(duration_played), 0) FROM play_history WHERE user_id = @client) AS total_play_time
`

	favoriteGenreSQL = `
SELECT m.genre AS genre
FROM play_history h
JOIN musics m ON m.id = h.music_id
WHERE h.user_id = @client AND m.genre IS NOT NULL AND m.genre <> ''
GROUP BY m.genre
ORDER BY COUNT(h.id) DESC, m.genre ASC
LIMIT 1
`
)

// PlatformTotals is the raw platform overview row.
type PlatformTotals struct {
	TotalUsers         int64
	ActiveUsers        int64
	TotalArtists       int64
	TotalClients       int64
	TotalMusics        int64
	PublishedMusics    int64
	DraftMusics        int64
	ArchivedMusics     int64
	TotalPurchases     int64
	TotalRevenue       decimal.Decimal
	TotalPaymentCodes  int64
	ActivePaymentCodes int64
}

// ActivityCounts counts rows created inside a window.
type ActivityCounts struct {
	NewUsers        int64
	NewMusics       int64
	RecentPurchases int64
	RecentPlays     int64
}

// Ranking is one row of an engagement leaderboard.
type Ranking struct {
	ID            int64
	PurchaseCount int64
	FavoriteCount int64
}

// ArtistTotals aggregates an artist's catalog and sales.
type ArtistTotals struct {
	TotalMusics     int64
	PublishedMusics int64
	DraftMusics     int64
	TotalPlays      int64
	TotalDownloads  int64
	TotalSales      int64
	TotalRevenue    decimal.Decimal
}

// ClientTotals aggregates a client's library.
type ClientTotals struct {
	TotalPurchases int64
	TotalSpent     decimal.Decimal
	TotalDownloads int64
	TotalFavorites int64
	TotalPlayTime  int64
	FavoriteGenre  string
}

type salesRow struct {
	TotalSales   int64
	TotalRevenue decimal.Decimal
}

type genreRow struct {
	Genre string
}

// Repository runs the aggregate queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PlatformTotals counts users, musics, sales and codes. Codes are active when
// unused and not expired at now.
func (r *Repository) PlatformTotals(ctx context.Context, now time.Time) (*PlatformTotals, error) {
	var out PlatformTotals
	err := r.db.WithContext(ctx).
		Raw(platformTotalsSQL, map[string]any{"active": true, "unused": false, "now": now}).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Activity counts what happened inside w.
func (r *Repository) Activity(ctx context.Context, w Window) (*ActivityCounts, error) {
	var out ActivityCounts
	err := r.db.WithContext(ctx).
		Raw(activitySQL, map[string]any{"start": w.Start, "end": w.End}).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TopUsers ranks users by purchases then favorites.
func (r *Repository) TopUsers(ctx context.Context, limit int) ([]Ranking, error) {
	return r.rank(ctx, userRankingSQL, limit)
}

// TopMusics ranks musics by purchases then favorites.
func (r *Repository) TopMusics(ctx context.Context, limit int) ([]Ranking, error) {
	return r.rank(ctx, musicRankingSQL, limit)
}

func (r *Repository) rank(ctx context.Context, query string, limit int) ([]Ranking, error) {
	var rows []Ranking
	if err := r.db.WithContext(ctx).Raw(query, map[string]any{"limit": limit}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UsersByID loads users keyed by id.
func (r *Repository) UsersByID(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	out := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// MusicsByID loads musics with their artists keyed by id.
func (r *Repository) MusicsByID(ctx context.Context, ids []int64) (map[int64]*models.Music, error) {
	out := make(map[int64]*models.Music, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Music
	if err := r.db.WithContext(ctx).Preload("Artist").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// ArtistTotals aggregates the catalog and sales of artistID.
func (r *Repository) ArtistTotals(ctx context.Context, artistID int64) (*ArtistTotals, error) {
	var out ArtistTotals
	args := map[string]any{"artist": artistID}
	if err := r.db.WithContext(ctx).Raw(artistCatalogSQL, args).Scan(&out).Error; err != nil {
		return nil, err
	}
	var sales salesRow
	if err := r.db.WithContext(ctx).Raw(artistSalesSQL, args).Scan(&sales).Error; err != nil {
		return nil, err
	}
	out.TotalSales = sales.TotalSales
	out.TotalRevenue = sales.TotalRevenue
	return &out, nil
}

// ClientTotals aggregates the library of clientID. The favorite genre is the
// most played one, ties broken alphabetically.
func (r *Repository) ClientTotals(ctx context.Context, clientID int64) (*ClientTotals, error) {
	var out ClientTotals
	args := map[string]any{"client": clientID}
	if err := r.db.WithContext(ctx).Raw(clientTotalsSQL, args).Scan(&out).Error; err != nil {
		return nil, err
	}
	var genre genreRow
	if err := r.db.WithContext(ctx).Raw(favoriteGenreSQL, args).Scan(&genre).Error; err != nil {
		return nil, err
	}
	out.FavoriteGenre = genre.Genre
	return &out, nil
}
