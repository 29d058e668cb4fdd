package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// DefaultMaxDownloads is the per-purchase download allowance.
const DefaultMaxDownloads = 5

// PaymentCode is a single-use code an artist hands to a buyer. Older API
// builds call the value "amount", newer ones "price".
type PaymentCode struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	MusicID        int64           `json:"music_id"`
	Price          decimal.Decimal `json:"price"`
	Amount         decimal.Decimal `json:"amount"`
	IsUsed         bool            `json:"is_used"`
	ExpiresAt      types.Timestamp `json:"expires_at"`
	CreatedAt      types.Timestamp `json:"created_at"`
	UsedAt         types.Timestamp `json:"used_at"`
	UsedByClientID *int64          `json:"used_by_client_id,omitempty"`
}

// GetID implements the list-splicing identity contract.
func (p PaymentCode) GetID() int64 { return p.ID }

// Value returns whichever of price/amount the server populated.
func (p PaymentCode) Value() decimal.Decimal {
	if !p.Price.IsZero() {
		return p.Price
	}
	return p.Amount
}

// StateLabel is the badge text for the code.
func (p PaymentCode) StateLabel() string {
	if p.IsUsed {
		return "Utilisé"
	}
	return "Disponible"
}

// Purchase records a client's acquisition of a music.
type Purchase struct {
	ID            int64               `json:"id"`
	ClientID      int64               `json:"client_id"`
	MusicID       int64               `json:"music_id"`
	PaymentCodeID *int64              `json:"payment_code_id,omitempty"`
	AmountPaid    decimal.Decimal     `json:"amount_paid"`
	Status        enums.PaymentStatus `json:"status"`
	DownloadCount int                 `json:"download_count"`
	MaxDownloads  int                 `json:"max_downloads"`
	PurchasedAt   types.Timestamp     `json:"purchased_at"`
	Music         *Music              `json:"music,omitempty"`
}

// GetID implements the list-splicing identity contract.
func (p Purchase) GetID() int64 { return p.ID }

// DownloadsLeft never goes below zero.
func (p Purchase) DownloadsLeft() int {
	left := p.MaxDownloads - p.DownloadCount
	if left < 0 {
		return 0
	}
	return left
}

// CanDownload reports whether another download is allowed.
func (p Purchase) CanDownload() bool {
	return p.DownloadsLeft() > 0
}

// DownloadLabel renders "n/max".
func (p Purchase) DownloadLabel() string {
	return fmt.Sprintf("%d/%d", p.DownloadCount, p.MaxDownloads)
}

// Title returns the purchased music title when embedded.
func (p Purchase) Title() string {
	if p.Music == nil {
		return fmt.Sprintf("Musique #%d", p.MusicID)
	}
	return p.Music.Title
}

// PurchaseRequest is the body of POST /api/client/purchase.
type PurchaseRequest struct {
	MusicID     int64  `json:"music_id" validate:"required,gt=0"`
	PaymentCode string `json:"payment_code" validate:"required"`
}

// Favorite links a user to a music.
type Favorite struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	MusicID   int64           `json:"music_id"`
	CreatedAt types.Timestamp `json:"created_at"`
	Music     *Music          `json:"music,omitempty"`
}

// GetID implements the list-splicing identity contract.
func (f Favorite) GetID() int64 { return f.ID }

// FavoriteRequest is the body of POST /api/client/favorites.
type FavoriteRequest struct {
	MusicID int64 `json:"music_id" validate:"required,gt=0"`
}

// PlayHistory is one listening session.
type PlayHistory struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	MusicID        int64           `json:"music_id"`
	PlayedAt       types.Timestamp `json:"played_at"`
	DurationPlayed int             `json:"duration_played"`
	Music          *Music          `json:"music,omitempty"`
}

// GetID implements the list-splicing identity contract.
func (p PlayHistory) GetID() int64 { return p.ID }

// PlayRequest is the body of POST /api/client/play-history.
type PlayRequest struct {
	MusicID        int64 `json:"music_id" validate:"required,gt=0"`
	DurationPlayed int   `json:"duration_played" validate:"gte=0"`
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
