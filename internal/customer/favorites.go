package customer

import (
	"context"
	"fmt"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/pkg/dto"
)

const confirmRemoveFavorite = "Êtes-vous sûr de vouloir retirer cette musique de vos favoris ?"

// AddFavorite bookmarks a music; the favorite is listed first.
func (d *Dashboard) AddFavorite(ctx context.Context, musicID int64) (*dto.Favorite, error) {
	var favorite dto.Favorite
	err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "client.favorite_add",
		Request:         apiclient.Post(pathFavorites, dto.FavoriteRequest{MusicID: musicID}),
		Result:          &favorite,
		SuccessTitle:    "Favori ajouté",
		SuccessMessage:  "La musique a été ajoutée à vos favoris.",
		FailureFallback: "Impossible d'ajouter le favori",
		OnSuccess: func(ctx context.Context) error {
			return fetch.Splice(ctx, d.Favorites, favorite, fetch.Prepend[dto.Favorite])
		},
	})
	if err != nil {
		return nil, err
	}
	return &favorite, nil
}

// RemoveFavorite drops a favorite once the user confirms.
func (d *Dashboard) RemoveFavorite(ctx context.Context, favoriteID int64) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "client.favorite_remove",
		Request:         apiclient.Delete(fmt.Sprintf("%s/%d", pathFavorites, favoriteID)),
		Confirm:         confirmRemoveFavorite,
		FailureFallback: "Impossible de retirer le favori",
		OnSuccess: func(context.Context) error {
			d.Favorites.Mutate(func(list []dto.Favorite) []dto.Favorite { return fetch.RemoveByID(list, favoriteID) })
			return nil
		},
	})
}

// PaidFavorites counts favorites that are not free.
func (d *Dashboard) PaidFavorites() int {
	count := 0
	for _, f := range d.Favorites.Data() {
		if f.Music != nil && !f.Music.IsFree {
			count++
		}
	}
	return count
}
