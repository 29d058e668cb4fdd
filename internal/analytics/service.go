package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

// DefaultRankingLimit caps the leaderboards.
const DefaultRankingLimit = 10

type repository interface {
	PlatformTotals(ctx context.Context, now time.Time) (*PlatformTotals, error)
	Activity(ctx context.Context, w Window) (*ActivityCounts, error)
	TopUsers(ctx context.Context, limit int) ([]Ranking, error)
	TopMusics(ctx context.Context, limit int) ([]Ranking, error)
	UsersByID(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	MusicsByID(ctx context.Context, ids []int64) (map[int64]*models.Music, error)
	ArtistTotals(ctx context.Context, artistID int64) (*ArtistTotals, error)
	ClientTotals(ctx context.Context, clientID int64) (*ClientTotals, error)
}

// ServiceParams bundles the analytics service dependencies.
type ServiceParams struct {
	Repo         repository
	Logger       *logger.Logger
	Now          func() time.Time
	RankingLimit int
	ActivityDays int
}

// Service computes the dashboard statistics.
type Service struct {
	repo         repository
	logg         *logger.Logger
	now          func() time.Time
	rankingLimit int
	activityDays int
}

// NewService builds the statistics service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.RankingLimit <= 0 {
		params.RankingLimit = DefaultRankingLimit
	}
	if params.ActivityDays <= 0 {
		params.ActivityDays = DefaultActivityDays
	}
	return &Service{
		repo:         params.Repo,
		logg:         params.Logger,
		now:          func() time.Time { return params.Now().UTC() },
		rankingLimit: params.RankingLimit,
		activityDays: params.ActivityDays,
	}, nil
}

// Platform returns the admin overview.
func (s *Service) Platform(ctx context.Context) (*dto.AdminStatistics, error) {
	totals, err := s.repo.PlatformTotals(ctx, s.now())
	if err != nil {
		return nil, s.internal(ctx, err, "computing platform statistics")
	}
	return &dto.AdminStatistics{
		TotalUsers:         totals.TotalUsers,
		ActiveUsers:        totals.ActiveUsers,
		InactiveUsers:      totals.TotalUsers - totals.ActiveUsers,
		TotalArtists:       totals.TotalArtists,
		TotalClients:       totals.TotalClients,
		TotalMusics:        totals.TotalMusics,
		PublishedMusics:    totals.PublishedMusics,
		DraftMusics:        totals.DraftMusics,
		ArchivedMusics:     totals.ArchivedMusics,
		TotalPurchases:     totals.TotalPurchases,
		TotalRevenue:       totals.TotalRevenue.Round(2),
		TotalPaymentCodes:  totals.TotalPaymentCodes,
		ActivePaymentCodes: totals.ActivePaymentCodes,
	}, nil
}

// RecentActivity counts what happened over the configured look-back.
func (s *Service) RecentActivity(ctx context.Context) (*dto.RecentActivity, error) {
	window := LastDays(s.now(), s.activityDays)
	counts, err := s.repo.Activity(ctx, window)
	if err != nil {
		return nil, s.internal(ctx, err, "computing recent activity")
	}
	return &dto.RecentActivity{
		Period:          window.Label(),
		NewUsers:        counts.NewUsers,
		NewMusics:       counts.NewMusics,
		RecentPurchases: counts.RecentPurchases,
		RecentPlays:     counts.RecentPlays,
	}, nil
}

// TopUsers is the user leaderboard.
func (s *Service) TopUsers(ctx context.Context) ([]dto.UserStatistic, error) {
	ranks, err := s.repo.TopUsers(ctx, s.rankingLimit)
	if err != nil {
		return nil, s.internal(ctx, err, "ranking users")
	}
	byID, err := s.repo.UsersByID(ctx, rankIDs(ranks))
	if err != nil {
		return nil, s.internal(ctx, err, "loading ranked users")
	}
	out := make([]dto.UserStatistic, 0, len(ranks))
	for _, rank := range ranks {
		user, ok := byID[rank.ID]
		if !ok {
			continue
		}
		out = append(out, dto.UserStatistic{
			User:          *users.FromModel(user),
			PurchaseCount: rank.PurchaseCount,
			FavoriteCount: rank.FavoriteCount,
		})
	}
	return out, nil
}

// TopMusics is the music leaderboard.
func (s *Service) TopMusics(ctx context.Context) ([]dto.MusicStatistic, error) {
	ranks, err := s.repo.TopMusics(ctx, s.rankingLimit)
	if err != nil {
		return nil, s.internal(ctx, err, "ranking musics")
	}
	byID, err := s.repo.MusicsByID(ctx, rankIDs(ranks))
	if err != nil {
		return nil, s.internal(ctx, err, "loading ranked musics")
	}
	out := make([]dto.MusicStatistic, 0, len(ranks))
	for _, rank := range ranks {
		music, ok := byID[rank.ID]
		if !ok {
			continue
		}
		out = append(out, dto.MusicStatistic{
			Music:         musics.FromModel(music),
			PurchaseCount: rank.PurchaseCount,
			FavoriteCount: rank.FavoriteCount,
		})
	}
	return out, nil
}

// Artist summarises the catalog and sales of artistID.
func (s *Service) Artist(ctx context.Context, artistID int64) (*dto.ArtistStatistics, error) {
	totals, err := s.repo.ArtistTotals(ctx, artistID)
	if err != nil {
		return nil, s.internal(s.logg.WithUserID(ctx, artistID), err, "computing artist statistics")
	}
	return &dto.ArtistStatistics{
		TotalMusics:     totals.TotalMusics,
		TotalPlays:      totals.TotalPlays,
		TotalDownloads:  totals.TotalDownloads,
		TotalRevenue:    totals.TotalRevenue.Round(2),
		TotalSales:      totals.TotalSales,
		PublishedMusics: totals.PublishedMusics,
		DraftMusics:     totals.DraftMusics,
	}, nil
}

// Client summarises the library of clientID.
func (s *Service) Client(ctx context.Context, clientID int64) (*dto.ClientStatistics, error) {
	totals, err := s.repo.ClientTotals(ctx, clientID)
	if err != nil {
		return nil, s.internal(s.logg.WithUserID(ctx, clientID), err, "computing client statistics")
	}
	return &dto.ClientStatistics{
		TotalPurchases: totals.TotalPurchases,
		TotalSpent:     totals.TotalSpent.Round(2),
		TotalFavorites: totals.TotalFavorites,
		TotalPlayTime:  totals.TotalPlayTime,
		FavoriteGenre:  totals.FavoriteGenre,
		TotalDownloads: totals.TotalDownloads,
	}, nil
}

func (s *Service) internal(ctx context.Context, err error, msg string) error {
	s.logg.Error(ctx, msg, err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func rankIDs(ranks []Ranking) []int64 {
	ids := make([]int64, 0, len(ranks))
	for _, rank := range ranks {
		ids = append(ids, rank.ID)
	}
	return ids
}
