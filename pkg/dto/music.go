package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// Music is a catalog entry.
type Music struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Genre          string            `json:"genre,omitempty"`
	Duration       int               `json:"duration,omitempty"`
	FilePath       string            `json:"file_path,omitempty"`
	CoverImagePath string            `json:"cover_image_path,omitempty"`
	IsFree         bool              `json:"is_free"`
	Price          decimal.Decimal   `json:"price"`
	Status         enums.MusicStatus `json:"status"`
	PlayCount      int64             `json:"play_count"`
	DownloadCount  int64             `json:"download_count"`
	ArtistID       int64             `json:"artist_id"`
	Artist         *User             `json:"artist,omitempty"`
	CreatedAt      types.Timestamp   `json:"created_at"`
	UpdatedAt      types.Timestamp   `json:"updated_at"`
}

// GetID implements the list-splicing identity contract.
func (m Music) GetID() int64 { return m.ID }

// PriceLabel renders the price as shown on cards; free music is never charged.
func (m Music) PriceLabel() string {
	if m.IsFree || m.Price.IsZero() {
		return "Gratuit"
	}
	return m.Price.StringFixed(2) + " €"
}

// ArtistName returns the artist display name when the relation was embedded.
func (m Music) ArtistName() string {
	if m.Artist == nil {
		return ""
	}
	return m.Artist.DisplayName()
}

// DurationLabel formats the duration as m:ss.
func (m Music) DurationLabel() string {
	if m.Duration <= 0 {
		return "-"
	}
	return formatClock(m.Duration)
}

// MatchesTitle reports whether the title contains query, ignoring case.
func (m Music) MatchesTitle(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Title), strings.ToLower(query))
}

// MusicUpdate is the partial body of PUT /api/artiste/musiques/{id}.
type MusicUpdate struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Genre       *string            `json:"genre,omitempty"`
	IsFree      *bool              `json:"is_free,omitempty"`
	Price       *decimal.Decimal   `json:"price,omitempty"`
	Status      *enums.MusicStatus `json:"status,omitempty"`
}
