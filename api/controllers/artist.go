package controllers

import (
	"context"
	"math"
	"net/http"

	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/api/validators"
	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const maxTitleLen = 255

// ArtistCatalog is the artist's own catalogue surface.
type ArtistCatalog interface {
	ListMine(ctx context.Context, artistID int64) ([]dto.Music, error)
	GetMine(ctx context.Context, artistID, id int64) (*dto.Music, error)
	Create(ctx context.Context, artistID int64, in musics.UploadInput) (*dto.Music, error)
	Update(ctx context.Context, artistID, id int64, update dto.MusicUpdate) (*dto.Music, error)
	Delete(ctx context.Context, artistID, id int64) error
	Publish(ctx context.Context, artistID, id int64) error
	Archive(ctx context.Context, artistID, id int64) error
	GenerateCode(ctx context.Context, artistID, id int64, expiryHours int) (*dto.PaymentCode, error)
	Codes(ctx context.Context, artistID int64) ([]dto.PaymentCode, error)
}

// ArtistStatsService aggregates an artist's catalogue.
type ArtistStatsService interface {
	Artist(ctx context.Context, artistID int64) (*dto.ArtistStatistics, error)
}

func ArtistMusics(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.ListMine(r.Context(), middleware.UserIDFromContext(r.Context()))
		writeResult(w, r, logg, data, err)
	}
}

func ArtistMusic(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.GetMine(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		writeResult(w, r, logg, data, err)
	}
}

// ArtistUploadMusic creates a music from a multipart form carrying the audio
// file and an optional cover image.
func ArtistUploadMusic(svc ArtistCatalog, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validators.ParseMultipart(w, r, maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		in, closeFiles, err := uploadInput(r)
		defer closeFiles()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		data, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), in)
		writeResult(w, r, logg, data, err)
	}
}

func uploadInput(r *http.Request) (musics.UploadInput, func(), error) {
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	isFree, err := validators.FormBool(r, "is_free", true)
	if err != nil {
		return musics.UploadInput{}, closeAll, err
	}
	price, err := validators.FormDecimal(r, "price")
	if err != nil {
		return musics.UploadInput{}, closeAll, err
	}
	var status enums.MusicStatus
	if raw := validators.FormString(r, "status", 0); raw != "" {
		if status, err = enums.ParseMusicStatus(raw); err != nil {
			return musics.UploadInput{}, closeAll, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Statut invalide")
		}
	}
	in := musics.UploadInput{
		Title:       validators.FormString(r, "title", maxTitleLen),
		Description: validators.FormString(r, "description", 0),
		Genre:       validators.FormString(r, "genre", maxTitleLen),
		IsFree:      isFree,
		Price:       price,
		Status:      status,
	}

	for _, field := range []string{"audio_file", "cover_image"} {
		file, header, err := validators.FormFile(r, field)
		if err != nil {
			return in, closeAll, err
		}
		if file == nil {
			continue
		}
		closers = append(closers, file.Close)
		part := &musics.FileInput{Name: header.Filename, Content: file}
		if field == "audio_file" {
			in.Audio = part
		} else {
			in.Cover = part
		}
	}
	return in, closeAll, nil
}

func ArtistUpdateMusic(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body dto.MusicUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, body)
		writeResult(w, r, logg, data, err)
	}
}

func ArtistDeleteMusic(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return artistAction(svc.Delete, "Musique supprimée avec succès", logg)
}

func ArtistPublishMusic(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return artistAction(svc.Publish, "Musique publiée avec succès", logg)
}

func ArtistArchiveMusic(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return artistAction(svc.Archive, "Musique archivée avec succès", logg)
}

func artistAction(action func(ctx context.Context, artistID, id int64) error, message string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := action(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, message)
	}
}

// ArtistGenerateCode issues a voucher valid for ?expiry_hours= hours.
func ArtistGenerateCode(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		hours, err := validators.ParseQueryInt(r, "expiry_hours", 0, math.MinInt32, maxInt32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := svc.GenerateCode(r.Context(), middleware.UserIDFromContext(r.Context()), id, hours)
		writeResult(w, r, logg, data, err)
	}
}

func ArtistPaymentCodes(svc ArtistCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Codes(r.Context(), middleware.UserIDFromContext(r.Context()))
		writeResult(w, r, logg, data, err)
	}
}

func ArtistStatistics(svc ArtistStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Artist(r.Context(), middleware.UserIDFromContext(r.Context()))
		writeResult(w, r, logg, data, err)
	}
}
