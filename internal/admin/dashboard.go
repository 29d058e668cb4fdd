// Package admin is the administrator dashboard: platform overview, user and
// music moderation, payment codes and engagement rankings.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
)

const (
	pathStatistics      = "/admin/statistics"
	pathRecentActivity  = "/admin/recent-activity"
	pathUsers           = "/admin/users"
	pathMusics          = "/admin/musics"
	pathPaymentCodes    = "/admin/payment-codes"
	pathUserStatistics  = "/admin/statistics/users"
	pathMusicStatistics = "/admin/statistics/musics"
)

// Section is one tab of the dashboard.
type Section string

const (
	SectionOverview     Section = "dashboard"
	SectionUsers        Section = "users"
	SectionMusics       Section = "musics"
	SectionPaymentCodes Section = "payment-codes"
	SectionUserStats    Section = "user-stats"
	SectionMusicStats   Section = "music-stats"
)

var sections = []Section{
	SectionOverview,
	SectionUsers,
	SectionMusics,
	SectionPaymentCodes,
	SectionUserStats,
	SectionMusicStats,
}

// Sections lists the tabs in display order.
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// ParseSection converts raw input into a Section.
func ParseSection(value string) (Section, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range sections {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin section %q", value)
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

// Dashboard holds one fetch slot per panel.
type Dashboard struct {
	client     apiClient
	dispatcher *mutation.Dispatcher
	logg       *logger.Logger

	Statistics   *fetch.Slot[dto.AdminStatistics]
	Activity     *fetch.Slot[dto.RecentActivity]
	Users        *fetch.Slot[[]dto.User]
	Musics       *fetch.Slot[[]dto.Music]
	PaymentCodes *fetch.Slot[[]dto.PaymentCode]
	UserStats    *fetch.Slot[[]dto.UserStatistic]
	MusicStats   *fetch.Slot[[]dto.MusicStatistic]
}

// New wires the dashboard. Nothing is fetched until a section is mounted.
func New(params Params) (*Dashboard, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	opts := []fetch.Option{fetch.WithLogger(logg), fetch.WithMetrics(params.Metrics)}
	with := func(extra ...fetch.Option) []fetch.Option {
		return append(append([]fetch.Option{}, opts...), extra...)
	}

	return &Dashboard{
		client:     params.Client,
		dispatcher: mutation.NewDispatcher(params.Client, params.Notifier, params.Confirmer, logg),
		logg:       logg,

		Statistics: fetch.NewSlot("admin.statistics", fetch.Endpoint[dto.AdminStatistics](params.Client, pathStatistics), opts...),
		Activity:   fetch.NewSlot("admin.recent_activity", fetch.Endpoint[dto.RecentActivity](params.Client, pathRecentActivity), opts...),
		Users: fetch.NewSlot("admin.users", fetch.Endpoint[[]dto.User](params.Client, pathUsers),
			with(fetch.WithFilters(fetch.NewFilters(FilterRole, FilterIsActive, FilterSearch)))...),
		Musics: fetch.NewSlot("admin.musics", fetch.Endpoint[[]dto.Music](params.Client, pathMusics),
			with(fetch.WithFilters(fetch.NewFilters(FilterStatus, FilterGenre, FilterIsFree)))...),
		PaymentCodes: fetch.NewSlot("admin.payment_codes", fetch.Endpoint[[]dto.PaymentCode](params.Client, pathPaymentCodes), opts...),
		UserStats:    fetch.NewSlot("admin.user_statistics", fetch.Endpoint[[]dto.UserStatistic](params.Client, pathUserStatistics), opts...),
		MusicStats:   fetch.NewSlot("admin.music_statistics", fetch.Endpoint[[]dto.MusicStatistic](params.Client, pathMusicStatistics), opts...),
	}, nil
}

// Mount fetches everything a section displays. The overview issues its
// requests concurrently; each panel keeps its own data when another fails.
func (d *Dashboard) Mount(ctx context.Context, section Section) error {
	ctx = d.logg.WithField(ctx, "section", string(section))
	switch section {
	case SectionOverview:
		return fetch.RefreshAll(ctx, d.Statistics, d.Activity)
	case SectionUsers:
		return d.Users.Mount(ctx)
	case SectionMusics:
		return d.Musics.Mount(ctx)
	case SectionPaymentCodes:
		return d.PaymentCodes.Mount(ctx)
	case SectionUserStats:
		return d.UserStats.Mount(ctx)
	case SectionMusicStats:
		return d.MusicStats.Mount(ctx)
	}
	return fmt.Errorf("invalid admin section %q", section)
}

func confirmDeletion(kind, name string) string {
	return fmt.Sprintf("Êtes-vous sûr ? Cette action est irréversible. Cela supprimera définitivement %s %q.", kind, name)
}
