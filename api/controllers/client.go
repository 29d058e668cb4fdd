package controllers

import (
	"context"
	"mime"
	"net/http"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/api/validators"
	"github.com/angelmondragon/soundmarket/internal/library"
	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/pagination"
)

// Catalog is the published catalogue as clients browse it.
type Catalog interface {
	Browse(ctx context.Context, filter musics.Filter) ([]dto.Music, error)
	GetPublished(ctx context.Context, id int64) (*dto.Music, error)
}

// Library is what a client does with musics once signed in.
type Library interface {
	Purchase(ctx context.Context, clientID int64, req dto.PurchaseRequest) (*dto.Purchase, error)
	Purchases(ctx context.Context, clientID int64) ([]dto.Purchase, error)
	Download(ctx context.Context, clientID, musicID int64, meta library.DownloadMeta) (*library.Delivery, error)
	Stream(ctx context.Context, clientID, musicID int64) (*library.Delivery, error)
	RecordPlay(ctx context.Context, userID int64, req dto.PlayRequest) (*dto.PlayHistory, error)
	History(ctx context.Context, userID int64, page pagination.Params) ([]dto.PlayHistory, error)
	AddFavorite(ctx context.Context, userID int64, req dto.FavoriteRequest) (*dto.Favorite, error)
	Favorites(ctx context.Context, userID int64) ([]dto.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, favoriteID int64) error
}

// ClientStatsService aggregates a client's activity.
type ClientStatsService interface {
	Client(ctx context.Context, clientID int64) (*dto.ClientStatistics, error)
}

// FileOpener opens stored media for delivery.
type FileOpener interface {
	Open(path string) (*os.File, error)
}

// ClientCatalog lists published musics filtered by the query.
func ClientCatalog(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseCatalogFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.Browse(r.Context(), filter)
		writeResult(w, r, logg, data, err)
	}
}

func ClientMusic(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.GetPublished(r.Context(), id)
		writeResult(w, r, logg, data, err)
	}
}

func ClientPurchase(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dto.PurchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.Purchase(r.Context(), middleware.UserIDFromContext(r.Context()), body)
		writeResult(w, r, logg, data, err)
	}
}

func ClientPurchases(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Purchases(r.Context(), middleware.UserIDFromContext(r.Context()))
		writeResult(w, r, logg, data, err)
	}
}

// ClientDownload sends the audio file as an attachment and counts the
// download against the purchase.
func ClientDownload(svc Library, files FileOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta := library.DownloadMeta{IPAddress: middleware.ClientIP(r), UserAgent: r.UserAgent()}
		delivery, err := svc.Download(r.Context(), middleware.UserIDFromContext(r.Context()), id, meta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDelivery(w, r, files, delivery, "attachment", logg)
	}
}

// ClientStream serves a published music inline.
func ClientStream(svc Library, files FileOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		delivery, err := svc.Stream(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveDelivery(w, r, files, delivery, "inline", logg)
	}
}

func serveDelivery(w http.ResponseWriter, r *http.Request, files FileOpener, delivery *library.Delivery, disposition string, logg *logger.Logger) {
	file, err := files.Open(delivery.Path)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat media file"))
		return
	}
	w.Header().Set("Content-Type", delivery.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": delivery.FileName}))
	http.ServeContent(w, r, delivery.FileName, info.ModTime(), file)
}

func ClientPlayHistory(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, err := validators.ParseQueryInt(r, "skip", 0, 0, maxInt32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.Params{Skip: skip, Limit: limit}
		data, err := svc.History(r.Context(), middleware.UserIDFromContext(r.Context()), page)
		writeResult(w, r, logg, data, err)
	}
}

func ClientRecordPlay(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dto.PlayRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.RecordPlay(r.Context(), middleware.UserIDFromContext(r.Context()), body)
		writeResult(w, r, logg, data, err)
	}
}

func ClientFavorites(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Favorites(r.Context(), middleware.UserIDFromContext(r.Context()))
		writeResult(w, r, logg, data, err)
	}
}

func ClientAddFavorite(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dto.FavoriteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.AddFavorite(r.Context(), middleware.UserIDFromContext(r.Context()), body)
		writeResult(w, r, logg, data, err)
	}
}

func ClientRemoveFavorite(svc Library, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveFavorite(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Musique supprimée des favoris avec succès")
	}
}

func ClientStatistics(svc ClientStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Client(r.Context(), middleware.UserIDFromContext(r.Context()))
		writeResult(w, r, logg, data, err)
	}
}

func parseCatalogFilter(r *http.Request) (musics.Filter, error) {
	var (
		filter musics.Filter
		err    error
	)
	if filter.Skip, err = validators.ParseQueryInt(r, "skip", 0, 0, maxInt32); err != nil {
		return filter, err
	}
	if filter.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return filter, err
	}
	filter.Genre = validators.ParseQueryString(r, "genre")
	filter.Search = validators.ParseQueryString(r, "search")
	if filter.IsFree, err = validators.ParseQueryBool(r, "is_free"); err != nil {
		return filter, err
	}
	if raw := validators.ParseQueryString(r, "artist_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, invalidQuery("artist_id", "must be numeric")
		}
		filter.ArtistID = &id
	}
	if filter.MinPrice, err = parseQueryPrice(r, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parseQueryPrice(r, "max_price"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseQueryPrice(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := validators.ParseQueryString(r, key)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil, invalidQuery(key, "must be a non-negative number")
	}
	return &value, nil
}

func invalidQuery(key, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{key: msg})
}
