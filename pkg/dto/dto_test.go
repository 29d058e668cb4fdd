package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/soundmarket/pkg/enums"
)

func TestMusicDecodesAPIPayload(t *testing.T) {
	body := `{
		"id": 42,
		"title": "Night Drive",
		"genre": "Synthwave",
		"is_free": false,
		"price": "4.99",
		"status": "published",
		"play_count": 10,
		"download_count": 2,
		"artist_id": 7,
		"created_at": "2024-01-02T08:00:00.000001",
		"artist": {"id": 7, "username": "bob_artist", "email": "bob@example.com", "full_name": "", "role": "artiste", "is_active": true}
	}`

	var music Music
	require.NoError(t, json.Unmarshal([]byte(body), &music))
	assert.Equal(t, enums.MusicStatusPublished, music.Status)
	assert.True(t, music.Price.Equal(decimal.RequireFromString("4.99")))
	assert.Equal(t, "4.99 €", music.PriceLabel())
	assert.Equal(t, "bob_artist", music.ArtistName())
	assert.Equal(t, enums.UserRoleArtiste, music.Artist.Role)
	assert.Equal(t, "2 janvier 2024", music.CreatedAt.FormatDate())
}

func TestFreeMusicIsNeverCharged(t *testing.T) {
	music := Music{IsFree: true, Price: decimal.NewFromInt(3)}
	assert.Equal(t, "Gratuit", music.PriceLabel())
}

func TestMusicMatchesTitle(t *testing.T) {
	music := Music{Title: "Night Drive"}
	assert.True(t, music.MatchesTitle("drive"))
	assert.True(t, music.MatchesTitle("  "))
	assert.False(t, music.MatchesTitle("day"))
}

func TestPurchaseDownloadsLeft(t *testing.T) {
	p := Purchase{DownloadCount: 5, MaxDownloads: DefaultMaxDownloads}
	assert.Equal(t, 0, p.DownloadsLeft())
	assert.False(t, p.CanDownload())
	assert.Equal(t, "5/5", p.DownloadLabel())

	p.DownloadCount = 2
	assert.Equal(t, 3, p.DownloadsLeft())
	assert.True(t, p.CanDownload())
}

func TestUserLabels(t *testing.T) {
	u := User{Name: "bob_artist", FullName: "Bob Marley", IsActive: false}
	assert.Equal(t, "bob_artist", u.Handle())
	assert.Equal(t, "Bob Marley", u.DisplayName())
	assert.Equal(t, "BM", u.Initials())
	assert.Equal(t, "Inactif", u.ActivityLabel())
}

func TestPaymentCodeValuePrefersPrice(t *testing.T) {
	code := PaymentCode{Amount: decimal.NewFromInt(2)}
	assert.True(t, code.Value().Equal(decimal.NewFromInt(2)))
	code.Price = decimal.NewFromInt(3)
	assert.True(t, code.Value().Equal(decimal.NewFromInt(3)))
}

func TestPlayTimeLabel(t *testing.T) {
	assert.Equal(t, "12m", ClientStatistics{TotalPlayTime: 720}.PlayTimeLabel())
	assert.Equal(t, "1h 05m", ClientStatistics{TotalPlayTime: 3900}.PlayTimeLabel())
}
