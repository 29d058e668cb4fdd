package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/api/validators"
	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const maxAdminListLimit = 1000

// UserAdmin is the account moderation surface.
type UserAdmin interface {
	List(ctx context.Context, filter users.ListFilter) ([]dto.User, error)
	Get(ctx context.Context, id int64) (*dto.User, error)
	SetActive(ctx context.Context, actorID, id int64, active bool) (*dto.User, error)
	Delete(ctx context.Context, actorID, id int64) error
}

// MusicAdmin is the catalogue moderation surface.
type MusicAdmin interface {
	List(ctx context.Context, filter musics.Filter) ([]dto.Music, error)
	SetStatus(ctx context.Context, id int64, raw string) (*dto.Music, error)
	Remove(ctx context.Context, id int64) error
	AllCodes(ctx context.Context) ([]dto.PaymentCode, error)
}

// PlatformStatistics feeds the admin overview.
type PlatformStatistics interface {
	Platform(ctx context.Context) (*dto.AdminStatistics, error)
	RecentActivity(ctx context.Context) (*dto.RecentActivity, error)
	TopUsers(ctx context.Context) ([]dto.UserStatistic, error)
	TopMusics(ctx context.Context) ([]dto.MusicStatistic, error)
}

func AdminStatistics(svc PlatformStatistics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Platform(r.Context())
		writeResult(w, r, logg, data, err)
	}
}

func AdminRecentActivity(svc PlatformStatistics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.RecentActivity(r.Context())
		writeResult(w, r, logg, data, err)
	}
}

func AdminUserStatistics(svc PlatformStatistics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.TopUsers(r.Context())
		writeResult(w, r, logg, data, err)
	}
}

func AdminMusicStatistics(svc PlatformStatistics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.TopMusics(r.Context())
		writeResult(w, r, logg, data, err)
	}
}

// AdminUsers lists accounts filtered by role, is_active and search.
func AdminUsers(svc UserAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseUserFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.List(r.Context(), filter)
		writeResult(w, r, logg, data, err)
	}
}

func AdminUser(svc UserAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.Get(r.Context(), id)
		writeResult(w, r, logg, data, err)
	}
}

// AdminSetUserActive activates or deactivates the account in the path.
func AdminSetUserActive(svc UserAdmin, active bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserIDFromContext(r.Context())
		data, err := svc.SetActive(r.Context(), actor, id, active)
		writeResult(w, r, logg, data, err)
	}
}

func AdminDeleteUser(svc UserAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Utilisateur supprimé avec succès")
	}
}

// AdminMusics lists every music filtered by status, genre and is_free.
func AdminMusics(svc MusicAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseAdminMusicFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.List(r.Context(), filter)
		writeResult(w, r, logg, data, err)
	}
}

// AdminMusicStatus moves a music to ?new_status=.
func AdminMusicStatus(svc MusicAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := validators.ParseQueryString(r, "new_status")
		if status == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"new_status": "field required"}))
			return
		}
		data, err := svc.SetStatus(r.Context(), id, status)
		writeResult(w, r, logg, data, err)
	}
}

func AdminDeleteMusic(svc MusicAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Musique supprimée avec succès")
	}
}

func AdminPaymentCodes(svc MusicAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.AllCodes(r.Context())
		writeResult(w, r, logg, data, err)
	}
}

func parseUserFilter(r *http.Request) (users.ListFilter, error) {
	var filter users.ListFilter
	if raw := validators.ParseQueryString(r, "role"); raw != "" {
		role, err := enums.ParseUserRole(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Rôle invalide")
		}
		filter.Role = &role
	}
	active, err := validators.ParseQueryBool(r, "is_active")
	if err != nil {
		return filter, err
	}
	filter.IsActive = active
	filter.Search = validators.ParseQueryString(r, "search")
	if filter.Skip, err = validators.ParseQueryInt(r, "skip", 0, 0, maxInt32); err != nil {
		return filter, err
	}
	if filter.Limit, err = validators.ParseQueryInt(r, "limit", 100, 1, maxAdminListLimit); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseAdminMusicFilter(r *http.Request) (musics.Filter, error) {
	var filter musics.Filter
	if raw := validators.ParseQueryString(r, "status"); raw != "" {
		status, err := enums.ParseMusicStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Statut invalide")
		}
		filter.Status = &status
	}
	filter.Genre = validators.ParseQueryString(r, "genre")
	free, err := validators.ParseQueryBool(r, "is_free")
	if err != nil {
		return filter, err
	}
	filter.IsFree = free
	if filter.Skip, err = validators.ParseQueryInt(r, "skip", 0, 0, maxInt32); err != nil {
		return filter, err
	}
	if filter.Limit, err = validators.ParseQueryInt(r, "limit", 100, 1, maxAdminListLimit); err != nil {
		return filter, err
	}
	return filter, nil
}
