package musics

import (
	"io"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// FileInput is one uploaded part.
type FileInput struct {
	Name    string
	Content io.Reader
}

// UploadInput is the artist's new-music form.
type UploadInput struct {
	Title       string
	Description string
	Genre       string
	IsFree      bool
	Price       decimal.Decimal
	// Status defaults to DRAFT when empty.
	Status enums.MusicStatus
	Audio  *FileInput
	Cover  *FileInput
}

// Filter narrows music listings. Nil/empty fields apply no constraint.
type Filter struct {
	Status        *enums.MusicStatus
	Genre         string
	IsFree        *bool
	ArtistID      *int64
	Search        string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Skip          int
	Limit         int
	PublishedOnly bool
}

// FromModel converts a stored music, embedding the artist when loaded.
func FromModel(m *models.Music) dto.Music {
	out := dto.Music{
		ID:            m.ID,
		Title:         m.Title,
		Description:   deref(m.Description),
		Genre:         deref(m.Genre),
		FilePath:      m.FilePath,
		IsFree:        m.IsFree,
		Price:         m.Price,
		Status:        m.Status,
		PlayCount:     m.PlayCount,
		DownloadCount: m.DownloadCount,
		ArtistID:      m.ArtistID,
		CreatedAt:     types.NewTimestamp(m.CreatedAt),
	}
	if m.Duration != nil {
		out.Duration = *m.Duration
	}
	if m.CoverImagePath != nil {
		out.CoverImagePath = *m.CoverImagePath
	}
	if m.UpdatedAt != nil {
		out.UpdatedAt = types.NewTimestamp(*m.UpdatedAt)
	}
	if m.Artist != nil {
		out.Artist = users.FromModel(m.Artist)
	}
	return out
}

// FromModels converts a slice.
func FromModels(rows []models.Music) []dto.Music {
	out := make([]dto.Music, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// CodeFromModel converts a stored payment code.
func CodeFromModel(c *models.PaymentCode) dto.PaymentCode {
	out := dto.PaymentCode{
		ID:             c.ID,
		Code:           c.Code,
		MusicID:        c.MusicID,
		Price:          c.Price,
		IsUsed:         c.IsUsed,
		ExpiresAt:      types.NewTimestamp(c.ExpiresAt),
		CreatedAt:      types.NewTimestamp(c.CreatedAt),
		UsedByClientID: c.UsedByClientID,
	}
	if c.UsedAt != nil {
		out.UsedAt = types.NewTimestamp(*c.UsedAt)
	}
	return out
}

// CodesFromModels converts a slice.
func CodesFromModels(rows []models.PaymentCode) []dto.PaymentCode {
	out := make([]dto.PaymentCode, 0, len(rows))
	for i := range rows {
		out = append(out, CodeFromModel(&rows[i]))
	}
	return out
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
