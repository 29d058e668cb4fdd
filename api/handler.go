package api

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/angelmondragon/soundmarket/api/controllers"
	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/api/routes"
	"github.com/angelmondragon/soundmarket/internal/analytics"
	"github.com/angelmondragon/soundmarket/internal/library"
	"github.com/angelmondragon/soundmarket/internal/media"
	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
)

// Services are the sandbox domain services sharing one database.
type Services struct {
	Users      *users.Service
	Musics     *musics.Service
	Library    *library.Service
	Statistics *analytics.Service
	Media      *media.Store
}

// NewServices builds every service over conn and the configured media dir.
func NewServices(cfg *config.Config, conn *gorm.DB, logg *logger.Logger) (*Services, error) {
	store, err := media.NewStore(cfg.Sandbox.MediaDir, cfg.Sandbox.MaxUploadBytes(), logg)
	if err != nil {
		return nil, err
	}

	userSvc, err := users.NewService(users.ServiceParams{
		Repo:     users.NewRepository(conn),
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}
	musicSvc, err := musics.NewService(musics.ServiceParams{
		Repo:   musics.NewRepository(conn),
		Media:  store,
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("musics service: %w", err)
	}
	librarySvc, err := library.NewService(library.ServiceParams{
		Repo:   library.NewRepository(conn),
		Media:  store,
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("library service: %w", err)
	}
	statsSvc, err := analytics.NewService(analytics.ServiceParams{
		Repo:   analytics.NewRepository(conn),
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("analytics service: %w", err)
	}

	return &Services{
		Users:      userSvc,
		Musics:     musicSvc,
		Library:    librarySvc,
		Statistics: statsSvc,
		Media:      store,
	}, nil
}

// Options carries the optional infrastructure of the handler.
type Options struct {
	Ready       map[string]controllers.Pinger
	RateLimiter middleware.RateLimiterStore
	Metrics     *metrics.RequestMetrics
}

// NewHandler returns the sandbox HTTP handler.
func NewHandler(cfg *config.Config, logg *logger.Logger, svcs *Services, opts Options) http.Handler {
	return routes.NewRouter(cfg, logg, routes.Dependencies{
		Users:       svcs.Users,
		Musics:      svcs.Musics,
		Library:     svcs.Library,
		Statistics:  svcs.Statistics,
		Files:       svcs.Media,
		Ready:       opts.Ready,
		RateLimiter: opts.RateLimiter,
		Metrics:     opts.Metrics,
	})
}

// SeedPassword is shared by the seeded accounts.
const SeedPassword = "soundmarket"

// SeedAccounts are created on startup when seeding is enabled.
var SeedAccounts = []dto.Registration{
	{Name: "admin", Email: "admin@soundmarket.local", Password: SeedPassword, Role: enums.UserRoleAdmin, FullName: "Admin"},
	{Name: "artiste", Email: "artiste@soundmarket.local", Password: SeedPassword, Role: enums.UserRoleArtiste, FullName: "Artiste Démo", ArtistBio: "Compte de démonstration"},
	{Name: "client", Email: "client@soundmarket.local", Password: SeedPassword, Role: enums.UserRoleClient, FullName: "Client Démo"},
}

// Seed makes sure every seed account exists.
func Seed(ctx context.Context, svc *users.Service, logg *logger.Logger) error {
	for _, account := range SeedAccounts {
		user, err := svc.EnsureSeed(ctx, account)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", account.Email, err)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"email": user.Email, "role": user.Role}), "sandbox account ready")
	}
	return nil
}
