// Package artist is the artist dashboard: profile, catalog management,
// payment codes and sales statistics.
package artist

import (
	"context"
	"fmt"
	"strings"
	"sync"

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
	pathProfile      = "/api/artiste/me"
	pathMusics       = "/api/artiste/musiques"
	pathPaymentCodes = "/api/artiste/codes-paiement"
	pathStatistics   = "/api/artiste/statistiques"
)

// Page is one screen of the artist dashboard.
type Page string

const (
	PageHome    Page = "home"
	PageMusics  Page = "musiques"
	PageCodes   Page = "codes"
	PageProfile Page = "profile"
)

// ParsePage converts raw input into a Page.
func ParsePage(value string) (Page, error) {
	switch p := Page(strings.ToLower(strings.TrimSpace(value))); p {
	case PageHome, PageMusics, PageCodes, PageProfile:
		return p, nil
	}
	return "", fmt.Errorf("invalid artist page %q", value)
}

type apiClient interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Params bundles the dependencies required to build the dashboard.
type Params struct {
	Client    apiClient
	Notifier  notifications.Notifier
	Confirmer mutation.Confirmer
	Logger    *logger.Logger
	Metrics   *metrics.RequestMetrics
}

// Dashboard holds the artist's fetched state and open forms.
type Dashboard struct {
	dispatcher *mutation.Dispatcher
	notifier   notifications.Notifier
	logg       *logger.Logger

	Profile      *fetch.Slot[dto.User]
	Musics       *fetch.Slot[[]dto.Music]
	PaymentCodes *fetch.Slot[[]dto.PaymentCode]
	Statistics   *fetch.Slot[dto.ArtistStatistics]

	ProfileForm *form.Holder[ProfileForm]
	MusicForm   *form.Holder[MusicForm]

	mu      sync.Mutex
	search  string
	editing int64
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
	opts := []fetch.Option{fetch.WithLogger(logg), fetch.WithMetrics(params.Metrics)}

	return &Dashboard{
		dispatcher: mutation.NewDispatcher(params.Client, params.Notifier, params.Confirmer, logg),
		notifier:   params.Notifier,
		logg:       logg,

		Profile:      fetch.NewSlot("artist.profile", fetch.Endpoint[dto.User](params.Client, pathProfile), opts...),
		Musics:       fetch.NewSlot("artist.musics", fetch.Endpoint[[]dto.Music](params.Client, pathMusics), opts...),
		PaymentCodes: fetch.NewSlot("artist.payment_codes", fetch.Endpoint[[]dto.PaymentCode](params.Client, pathPaymentCodes), opts...),
		Statistics:   fetch.NewSlot("artist.statistics", fetch.Endpoint[dto.ArtistStatistics](params.Client, pathStatistics), opts...),

		ProfileForm: form.NewHolder(ProfileForm{}, form.WithInvalidMessage[ProfileForm]("Veuillez vérifier les informations du profil.")),
		MusicForm:   form.NewHolder(MusicForm{}, form.WithCheck(checkMusicForm)),
	}, nil
}

// Mount fetches what a page displays.
func (d *Dashboard) Mount(ctx context.Context, page Page) error {
	ctx = d.logg.WithField(ctx, "page", string(page))
	switch page {
	case PageHome:
		err := fetch.RefreshAll(ctx, d.Statistics, d.Profile)
		d.syncProfileForm()
		return err
	case PageMusics:
		if err := d.Musics.Mount(ctx); err != nil {
			notifications.Error(ctx, d.notifier, "Erreur", "Impossible de charger les musiques")
			return err
		}
		return nil
	case PageCodes:
		return fetch.RefreshAll(ctx, d.PaymentCodes, d.Musics)
	case PageProfile:
		return d.LoadProfile(ctx)
	}
	return fmt.Errorf("invalid artist page %q", page)
}
