// Package customer is the client dashboard: catalog and purchases, downloads,
// favorites, listening history and profile.
package customer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/form"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
)

const (
	pathProfile     = "/api/client/me"
	pathStatistics  = "/api/client/statistics"
	pathCatalog     = "/api/client/musiques"
	pathPurchase    = "/api/client/purchase"
	pathPurchases   = "/api/client/purchases"
	pathFavorites   = "/api/client/favorites"
	pathPlayHistory = "/api/client/play-history"
	pathDownload    = "/api/client/download"
	pathStream      = "/api/client/stream"
)

// Page is one screen of the client dashboard.
type Page string

const (
	PageHome      Page = "home"
	PageCatalog   Page = "catalog"
	PageDownloads Page = "downloads"
	PageFavorites Page = "favorites"
	PageHistory   Page = "history"
	PageProfile   Page = "profile"
)

// ParsePage converts raw input into a Page.
func ParsePage(value string) (Page, error) {
	switch p := Page(strings.ToLower(strings.TrimSpace(value))); p {
	case PageHome, PageCatalog, PageDownloads, PageFavorites, PageHistory, PageProfile:
		return p, nil
	}
	return "", fmt.Errorf("invalid client page %q", value)
}

type apiClient interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
	Download(ctx context.Context, req apiclient.Request, w io.Writer) (apiclient.Download, error)
}

// Params bundles the dependencies required to build the dashboard.
type Params struct {
	Client    apiClient
	Notifier  notifications.Notifier
	Confirmer mutation.Confirmer
	Logger    *logger.Logger
	Metrics   *metrics.RequestMetrics
	// DownloadDir receives downloaded files; defaults to the working directory.
	DownloadDir string
}

// Dashboard holds the client's fetched state and open forms.
type Dashboard struct {
	client      apiClient
	dispatcher  *mutation.Dispatcher
	notifier    notifications.Notifier
	logg        *logger.Logger
	downloadDir string

	Profile    *fetch.Slot[dto.User]
	Statistics *fetch.Slot[dto.ClientStatistics]
	Catalog    *fetch.Slot[[]dto.Music]
	Purchases  *fetch.Slot[[]dto.Purchase]
	Favorites  *fetch.Slot[[]dto.Favorite]
	History    *fetch.Slot[[]dto.PlayHistory]

	ProfileForm *form.Holder[ProfileForm]
}

// New wires the dashboard. Nothing is fetched until a page is mounted.
func New(params Params) (*Dashboard, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	dir := params.DownloadDir
	if dir == "" {
		dir = "."
	}
	opts := []fetch.Option{fetch.WithLogger(logg), fetch.WithMetrics(params.Metrics)}
	with := func(extra ...fetch.Option) []fetch.Option {
		return append(append([]fetch.Option{}, opts...), extra...)
	}

	return &Dashboard{
		client:      params.Client,
		dispatcher:  mutation.NewDispatcher(params.Client, params.Notifier, params.Confirmer, logg),
		notifier:    params.Notifier,
		logg:        logg,
		downloadDir: dir,

		Profile:    fetch.NewSlot("client.profile", fetch.Endpoint[dto.User](params.Client, pathProfile), opts...),
		Statistics: fetch.NewSlot("client.statistics", fetch.Endpoint[dto.ClientStatistics](params.Client, pathStatistics), opts...),
		Catalog: fetch.NewSlot("client.catalog", fetch.Endpoint[[]dto.Music](params.Client, pathCatalog),
			with(fetch.WithFilters(catalogFilters()))...),
		Purchases: fetch.NewSlot("client.purchases", fetch.Endpoint[[]dto.Purchase](params.Client, pathPurchases), opts...),
		Favorites: fetch.NewSlot("client.favorites", fetch.Endpoint[[]dto.Favorite](params.Client, pathFavorites), opts...),
		History: fetch.NewSlot("client.play_history", fetch.Endpoint[[]dto.PlayHistory](params.Client, pathPlayHistory),
			with(fetch.WithFilters(fetch.NewFilters(FilterSkip, FilterLimit)))...),

		ProfileForm: form.NewHolder(ProfileForm{}),
	}, nil
}

// Mount fetches what a page displays.
func (d *Dashboard) Mount(ctx context.Context, page Page) error {
	ctx = d.logg.WithField(ctx, "page", string(page))
	switch page {
	case PageHome:
		return fetch.RefreshAll(ctx, d.Statistics, d.Purchases, d.Favorites)
	case PageCatalog:
		return d.Catalog.Mount(ctx)
	case PageDownloads:
		return d.Purchases.Mount(ctx)
	case PageFavorites:
		return d.Favorites.Mount(ctx)
	case PageHistory:
		return d.History.Mount(ctx)
	case PageProfile:
		return d.LoadProfile(ctx)
	}
	return fmt.Errorf("invalid client page %q", page)
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
