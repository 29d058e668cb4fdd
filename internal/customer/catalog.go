package customer

import (
	"context"
	"strconv"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/pagination"
)

// Catalog and history filter keys, in query order.
const (
	FilterSkip     = "skip"
	FilterLimit    = "limit"
	FilterGenre    = "genre"
	FilterIsFree   = "is_free"
	FilterArtistID = "artist_id"
	FilterSearch   = "search"
	FilterMinPrice = "min_price"
	FilterMaxPrice = "max_price"
)

func catalogFilters() fetch.Filters {
	return fetch.NewFilters(FilterSkip, FilterLimit, FilterGenre, FilterIsFree, FilterArtistID, FilterSearch, FilterMinPrice, FilterMaxPrice)
}

// CatalogFilter narrows the published catalog. Empty fields apply no
// constraint; Limit is capped at 100.
type CatalogFilter struct {
	Skip     int
	Limit    int
	Genre    string
	IsFree   string
	ArtistID int64
	Search   string
	MinPrice string
	MaxPrice string
}

func (f CatalogFilter) filters() fetch.Filters {
	out := catalogFilters().
		Set(FilterGenre, orAll(f.Genre)).
		Set(FilterIsFree, orAll(f.IsFree)).
		Set(FilterSearch, orAll(f.Search)).
		Set(FilterMinPrice, orAll(f.MinPrice)).
		Set(FilterMaxPrice, orAll(f.MaxPrice))
	if f.Skip > 0 {
		out = out.Set(FilterSkip, strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		out = out.Set(FilterLimit, strconv.Itoa(clampLimit(f.Limit)))
	}
	if f.ArtistID > 0 {
		out = out.Set(FilterArtistID, strconv.FormatInt(f.ArtistID, 10))
	}
	return out
}

func clampLimit(limit int) int {
	return pagination.NormalizeLimit(limit)
}

func orAll(value string) string {
	if value == "" {
		return fetch.All
	}
	return value
}

// BrowseCatalog applies f and re-fetches the catalog when it changed.
func (d *Dashboard) BrowseCatalog(ctx context.Context, f CatalogFilter) error {
	return d.Catalog.SetFilters(ctx, f.filters())
}

// MusicDetail loads one published music.
func (d *Dashboard) MusicDetail(ctx context.Context, id int64) (*dto.Music, error) {
	var music dto.Music
	if err := d.client.Do(ctx, apiclient.Get(pathCatalog+"/"+strconv.FormatInt(id, 10), nil), &music); err != nil {
		return nil, err
	}
	return &music, nil
}
