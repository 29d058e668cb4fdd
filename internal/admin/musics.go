package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

// Music list filter keys, in query order.
const (
	FilterStatus = "status"
	FilterGenre  = "genre"
	FilterIsFree = "is_free"
)

// MusicFilter narrows the music list. Empty fields and "all" apply no
// constraint.
type MusicFilter struct {
	Status string
	Genre  string
	IsFree string
}

func (f MusicFilter) filters() fetch.Filters {
	return fetch.NewFilters(FilterStatus, FilterGenre, FilterIsFree).
		Set(FilterStatus, orAll(f.Status)).
		Set(FilterGenre, orAll(f.Genre)).
		Set(FilterIsFree, orAll(f.IsFree))
}

// MusicRow is one rendered line of the music table.
type MusicRow struct {
	ID        int64
	Title     string
	Artist    string
	Genre     string
	Status    enums.MusicStatus
	Label     string
	Price     string
	Plays     int64
	Downloads int64
}

// FilterMusics applies f and re-fetches the list when it changed.
func (d *Dashboard) FilterMusics(ctx context.Context, f MusicFilter) error {
	return d.Musics.SetFilters(ctx, f.filters())
}

// MusicRows renders the fetched musics.
func (d *Dashboard) MusicRows() []MusicRow {
	musics := d.Musics.Data()
	rows := make([]MusicRow, 0, len(musics))
	for _, m := range musics {
		artist := m.ArtistName()
		if artist == "" {
			artist = fmt.Sprintf("#%d", m.ArtistID)
		}
		rows = append(rows, MusicRow{
			ID:        m.ID,
			Title:     m.Title,
			Artist:    artist,
			Genre:     m.Genre,
			Status:    m.Status,
			Label:     m.Status.Label(),
			Price:     m.PriceLabel(),
			Plays:     m.PlayCount,
			Downloads: m.DownloadCount,
		})
	}
	return rows
}

// SetMusicStatus moves a music to status, then re-fetches the list.
func (d *Dashboard) SetMusicStatus(ctx context.Context, id int64, status enums.MusicStatus) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name: "admin.music_status",
		Request: apiclient.Request{
			Method: http.MethodPut,
			Path:   musicPath(id) + "/status",
			Query:  apiclient.Params{}.Add("new_status", status.String()),
		},
		Validate: func() error {
			if !status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "Statut invalide")
			}
			return nil
		},
		InvalidTitle:    "Erreur",
		SuccessTitle:    "Succès",
		SuccessMessage:  fmt.Sprintf("Statut mis à jour : %s", status.Label()),
		FailureFallback: "Impossible de modifier le statut",
		OnSuccess:       d.Musics.Refresh,
	})
}

// DeleteMusic removes a music once the user confirms.
func (d *Dashboard) DeleteMusic(ctx context.Context, id int64) error {
	name := fmt.Sprintf("#%d", id)
	if music, ok := fetch.FindByID(d.Musics.Data(), id); ok {
		name = music.Title
	}
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "admin.music_delete",
		Request:         apiclient.Delete(musicPath(id)),
		Confirm:         confirmDeletion("la musique", name),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Musique supprimée",
		FailureFallback: "Impossible de supprimer la musique",
		OnSuccess:       d.Musics.Refresh,
	})
}

func musicPath(id int64) string {
	return fmt.Sprintf("%s/%d", pathMusics, id)
}
