package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/soundmarket/api/controllers"
	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
)

// UserService covers accounts, authentication and user administration.
type UserService interface {
	controllers.AccountService
	controllers.UserAdmin
	middleware.Authenticator
}

// MusicService covers the artist catalogue, moderation and browsing.
type MusicService interface {
	controllers.ArtistCatalog
	controllers.MusicAdmin
	controllers.Catalog
}

// StatisticsService aggregates platform, artist and client activity.
type StatisticsService interface {
	controllers.PlatformStatistics
	controllers.ArtistStatsService
	controllers.ClientStatsService
}

// Dependencies are the collaborators the sandbox API serves. RateLimiter and
// Metrics are optional.
type Dependencies struct {
	Users       UserService
	Musics      MusicService
	Library     controllers.Library
	Statistics  StatisticsService
	Files       controllers.FileOpener
	Ready       map[string]controllers.Pinger
	RateLimiter middleware.RateLimiterStore
	Metrics     *metrics.RequestMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Sandbox.CORSOrigins),
		middleware.Metrics(deps.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	authenticated := middleware.Auth(deps.Users, logg)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.AuthRegister(deps.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Users, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", controllers.AuthLogout(deps.Users, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Users, logg))
			r.Get("/me", controllers.ProfileGet())
			r.Put("/me", controllers.ProfileUpdate(deps.Users, controllers.AccountProfile, logg))
		})

		r.Route("/artiste", func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(middleware.MsgArtistOnly, logg, enums.UserRoleArtiste))
			mountArtist(r, deps, cfg.Sandbox.MaxUploadBytes(), logg)
		})

		r.Route("/client", func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(middleware.MsgClientsOnly, logg, enums.UserRoleClient))
			mountClient(r, deps, logg)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated, middleware.RequireRole(middleware.MsgAdminOnly, logg, enums.UserRoleAdmin))
			mountAdmin(r, deps, logg)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticated, middleware.RequireRole(middleware.MsgAdminOnly, logg, enums.UserRoleAdmin))
		mountAdmin(r, deps, logg)
	})

	return r
}

func mountAdmin(r chi.Router, deps Dependencies, logg *logger.Logger) {
	r.Get("/statistics", controllers.AdminStatistics(deps.Statistics, logg))
	r.Get("/statistics/users", controllers.AdminUserStatistics(deps.Statistics, logg))
	r.Get("/statistics/musics", controllers.AdminMusicStatistics(deps.Statistics, logg))
	r.Get("/recent-activity", controllers.AdminRecentActivity(deps.Statistics, logg))

	r.Get("/users", controllers.AdminUsers(deps.Users, logg))
	r.Get("/users/{id}", controllers.AdminUser(deps.Users, logg))
	r.Post("/users/{id}/activate", controllers.AdminSetUserActive(deps.Users, true, logg))
	r.Post("/users/{id}/deactivate", controllers.AdminSetUserActive(deps.Users, false, logg))
	r.Delete("/users/{id}", controllers.AdminDeleteUser(deps.Users, logg))

	r.Get("/musics", controllers.AdminMusics(deps.Musics, logg))
	r.Put("/musics/{id}/status", controllers.AdminMusicStatus(deps.Musics, logg))
	r.Delete("/musics/{id}", controllers.AdminDeleteMusic(deps.Musics, logg))
	r.Get("/payment-codes", controllers.AdminPaymentCodes(deps.Musics, logg))
}

func mountArtist(r chi.Router, deps Dependencies, maxUpload int64, logg *logger.Logger) {
	r.Get("/me", controllers.ProfileGet())
	r.Put("/me", controllers.ProfileUpdate(deps.Users, controllers.ArtistProfile, logg))

	r.Get("/musiques", controllers.ArtistMusics(deps.Musics, logg))
	r.Post("/musiques", controllers.ArtistUploadMusic(deps.Musics, maxUpload, logg))
	r.Get("/musiques/{id}", controllers.ArtistMusic(deps.Musics, logg))
	r.Put("/musiques/{id}", controllers.ArtistUpdateMusic(deps.Musics, logg))
	r.Delete("/musiques/{id}", controllers.ArtistDeleteMusic(deps.Musics, logg))
	r.Post("/musiques/{id}/publier", controllers.ArtistPublishMusic(deps.Musics, logg))
	r.Post("/musiques/{id}/archiver", controllers.ArtistArchiveMusic(deps.Musics, logg))
	r.Post("/musiques/{id}/generate-code", controllers.ArtistGenerateCode(deps.Musics, logg))

	r.Get("/codes-paiement", controllers.ArtistPaymentCodes(deps.Musics, logg))
	r.Get("/statistiques", controllers.ArtistStatistics(deps.Statistics, logg))
}

func mountClient(r chi.Router, deps Dependencies, logg *logger.Logger) {
	r.Get("/me", controllers.ProfileGet())
	r.Put("/me", controllers.ProfileUpdate(deps.Users, controllers.ClientProfile, logg))

	r.Get("/musiques", controllers.ClientCatalog(deps.Musics, logg))
	r.Get("/musiques/{id}", controllers.ClientMusic(deps.Musics, logg))

	r.Post("/purchase", controllers.ClientPurchase(deps.Library, logg))
	r.Get("/purchases", controllers.ClientPurchases(deps.Library, logg))
	r.Get("/download/{id}", controllers.ClientDownload(deps.Library, deps.Files, logg))
	r.Get("/stream/{id}", controllers.ClientStream(deps.Library, deps.Files, logg))

	r.Get("/play-history", controllers.ClientPlayHistory(deps.Library, logg))
	r.Post("/play-history", controllers.ClientRecordPlay(deps.Library, logg))

	r.Get("/favorites", controllers.ClientFavorites(deps.Library, logg))
	r.Post("/favorites", controllers.ClientAddFavorite(deps.Library, logg))
	r.Delete("/favorites/{id}", controllers.ClientRemoveFavorite(deps.Library, logg))

	r.Get("/statistics", controllers.ClientStatistics(deps.Statistics, logg))
}
