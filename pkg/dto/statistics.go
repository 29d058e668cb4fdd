package dto

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AdminStatistics is the platform-wide overview.
type AdminStatistics struct {
	TotalUsers         int64           `json:"total_users"`
	ActiveUsers        int64           `json:"active_users"`
	InactiveUsers      int64           `json:"inactive_users"`
	TotalArtists       int64           `json:"total_artists"`
	TotalClients       int64           `json:"total_clients"`
	TotalMusics        int64           `json:"total_musics"`
	PublishedMusics    int64           `json:"published_musics"`
	DraftMusics        int64           `json:"draft_musics"`
	ArchivedMusics     int64           `json:"archived_musics"`
	TotalPurchases     int64           `json:"total_purchases"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalPaymentCodes  int64           `json:"total_payment_codes"`
	ActivePaymentCodes int64           `json:"active_payment_codes"`
}

// RecentActivity summarises the last days of platform activity.
type RecentActivity struct {
	Period          string `json:"period"`
	NewUsers        int64  `json:"new_users"`
	NewMusics       int64  `json:"new_musics"`
	RecentPurchases int64  `json:"recent_purchases"`
	RecentPlays     int64  `json:"recent_plays"`
}

// UserStatistic ranks one user by engagement.
type UserStatistic struct {
	User          User  `json:"user"`
	PurchaseCount int64 `json:"purchase_count"`
	FavoriteCount int64 `json:"favorite_count"`
}

// MusicStatistic ranks one music by engagement.
type MusicStatistic struct {
	Music         Music `json:"music"`
	PurchaseCount int64 `json:"purchase_count"`
	FavoriteCount int64 `json:"favorite_count"`
}

// ArtistStatistics is the artist dashboard summary.
type ArtistStatistics struct {
	TotalMusics     int64           `json:"total_musics"`
	TotalPlays      int64           `json:"total_plays"`
	TotalDownloads  int64           `json:"total_downloads"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalSales      int64           `json:"total_sales"`
	PublishedMusics int64           `json:"published_musics"`
	DraftMusics     int64           `json:"draft_musics"`
}

// ClientStatistics is the client dashboard summary.
type ClientStatistics struct {
	TotalPurchases int64           `json:"total_purchases"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalFavorites int64           `json:"total_favorites"`
	TotalPlayTime  int64           `json:"total_play_time"`
	FavoriteGenre  string          `json:"favorite_genre,omitempty"`
	TotalDownloads int64           `json:"total_downloads"`
}

// PlayTimeLabel renders the listening time as "1h 05m" or "12m".
func (c ClientStatistics) PlayTimeLabel() string {
	minutes := c.TotalPlayTime / 60
	if minutes >= 60 {
		return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}
