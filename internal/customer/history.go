package customer

import (
	"context"
	"strconv"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/form"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/pkg/dto"
)

// BrowseHistory re-fetches one page of the listening history.
func (d *Dashboard) BrowseHistory(ctx context.Context, skip, limit int) error {
	filters := fetch.NewFilters(FilterSkip, FilterLimit)
	if skip > 0 {
		filters = filters.Set(FilterSkip, strconv.Itoa(skip))
	}
	if limit > 0 {
		filters = filters.Set(FilterLimit, strconv.Itoa(clampLimit(limit)))
	}
	return d.History.SetFilters(ctx, filters)
}

// RecordPlay logs a listening session; the entry is listed first.
func (d *Dashboard) RecordPlay(ctx context.Context, musicID int64, seconds int) (*dto.PlayHistory, error) {
	req := dto.PlayRequest{MusicID: musicID, DurationPlayed: seconds}
	var entry dto.PlayHistory
	err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:    "client.play_record",
		Request: apiclient.Post(pathPlayHistory, req),
		Validate: func() error {
			return form.Check(req, "Écoute invalide")
		},
		InvalidTitle:    "Erreur",
		Result:          &entry,
		FailureFallback: "Impossible d'enregistrer l'écoute",
		OnSuccess: func(ctx context.Context) error {
			return fetch.Splice(ctx, d.History, entry, fetch.Prepend[dto.PlayHistory])
		},
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
