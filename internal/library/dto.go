package library

import (
	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// Delivery is a file ready to be served to the client.
type Delivery struct {
	Path        string
	FileName    string
	ContentType string
}

// DownloadMeta is recorded with each purchased download.
type DownloadMeta struct {
	IPAddress string
	UserAgent string
}

func purchaseFromModel(p *models.Purchase) dto.Purchase {
	out := dto.Purchase{
		ID:            p.ID,
		ClientID:      p.ClientID,
		MusicID:       p.MusicID,
		PaymentCodeID: p.PaymentCodeID,
		AmountPaid:    p.AmountPaid,
		Status:        p.Status,
		DownloadCount: p.DownloadCount,
		MaxDownloads:  p.MaxDownloads,
		PurchasedAt:   types.NewTimestamp(p.PurchasedAt),
	}
	if p.Music != nil {
		music := musics.FromModel(p.Music)
		out.Music = &music
	}
	return out
}

func favoriteFromModel(f *models.Favorite) dto.Favorite {
	out := dto.Favorite{
		ID:        f.ID,
		UserID:    f.UserID,
		MusicID:   f.MusicID,
		CreatedAt: types.NewTimestamp(f.CreatedAt),
	}
	if f.Music != nil {
		music := musics.FromModel(f.Music)
		out.Music = &music
	}
	return out
}

func playFromModel(p *models.PlayHistory) dto.PlayHistory {
	out := dto.PlayHistory{
		ID:             p.ID,
		UserID:         p.UserID,
		MusicID:        p.MusicID,
		PlayedAt:       types.NewTimestamp(p.PlayedAt),
		DurationPlayed: p.DurationPlayed,
	}
	if p.Music != nil {
		music := musics.FromModel(p.Music)
		out.Music = &music
	}
	return out
}
