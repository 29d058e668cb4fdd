package artist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/form"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

const (
	defaultExpiryHours = 24
	uploadIncomplete   = "Veuillez remplir tous les champs obligatoires et sélectionner un fichier audio."
)

// File is a local file attached to an upload.
type File struct {
	Name    string
	Content io.Reader
}

// Upload is the "Nouvelle musique" form.
type Upload struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Genre       string `json:"genre" validate:"required"`
	IsFree      bool   `json:"is_free"`
	Price       string `json:"price"`
	Status      string `json:"status" validate:"required"`
	AudioFile   *File  `json:"audio_file" validate:"required"`
	CoverImage  *File  `json:"cover_image"`
}

// NewUpload returns an empty form with the dialog's defaults.
func NewUpload() Upload {
	return Upload{IsFree: true, Status: strings.ToLower(enums.MusicStatusDraft.String())}
}

func (u Upload) multipart() *apiclient.Multipart {
	price := strings.TrimSpace(u.Price)
	if price == "" {
		price = "0"
	}
	body := &apiclient.Multipart{
		Fields: apiclient.Params{}.
			Add("title", u.Title).
			Add("description", u.Description).
			Add("genre", u.Genre).
			Add("is_free", strconv.FormatBool(u.IsFree)).
			Add("price", price).
			Add("status", u.Status),
		Files: []apiclient.FilePart{{Field: "audio_file", FileName: u.AudioFile.Name, Content: u.AudioFile.Content}},
	}
	if u.CoverImage != nil {
		body.Files = append(body.Files, apiclient.FilePart{Field: "cover_image", FileName: u.CoverImage.Name, Content: u.CoverImage.Content})
	}
	return body
}

// MusicForm is the edit dialog of an existing music.
type MusicForm struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Genre       string `json:"genre" validate:"required"`
	IsFree      bool   `json:"is_free"`
	Price       string `json:"price"`
	Status      string `json:"status" validate:"required"`
}

func musicFormFrom(m dto.Music) MusicForm {
	return MusicForm{
		Title:       m.Title,
		Description: m.Description,
		Genre:       m.Genre,
		IsFree:      m.IsFree,
		Price:       m.Price.StringFixed(2),
		Status:      m.Status.String(),
	}
}

func checkMusicForm(f MusicForm) error {
	if f.Status != "" {
		if _, err := enums.ParseMusicStatus(f.Status); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "Statut invalide")
		}
	}
	if !f.IsFree {
		if _, err := parsePrice(f.Price); err != nil {
			return err
		}
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Prix invalide")
	}
	return price, nil
}

func (f MusicForm) update() (dto.MusicUpdate, error) {
	status, err := enums.ParseMusicStatus(f.Status)
	if err != nil {
		return dto.MusicUpdate{}, err
	}
	price := decimal.Zero
	if !f.IsFree {
		if price, err = parsePrice(f.Price); err != nil {
			return dto.MusicUpdate{}, err
		}
	}
	return dto.MusicUpdate{
		Title:       &f.Title,
		Description: &f.Description,
		Genre:       &f.Genre,
		IsFree:      &f.IsFree,
		Price:       &price,
		Status:      &status,
	}, nil
}

// Search narrows the displayed musics by title. It never calls the API.
func (d *Dashboard) Search(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.search = query
}

// Visible returns the fetched musics matching the search, in list order.
func (d *Dashboard) Visible() []dto.Music {
	d.mu.Lock()
	query := d.search
	d.mu.Unlock()

	var out []dto.Music
	for _, m := range d.Musics.Data() {
		if m.MatchesTitle(query) {
			out = append(out, m)
		}
	}
	return out
}

// UploadMusic sends the new music with its audio file. An incomplete form is
// rejected before anything is sent; the created music is listed first.
func (d *Dashboard) UploadMusic(ctx context.Context, upload Upload) (*dto.Music, error) {
	var body *apiclient.Multipart
	if upload.AudioFile != nil {
		body = upload.multipart()
	}
	var created dto.Music
	err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:    "artist.music_upload",
		Request: apiclient.Request{Method: http.MethodPost, Path: pathMusics, Multipart: body},
		Validate: func() error {
			return form.Check(upload, uploadIncomplete)
		},
		Result:          &created,
		SuccessTitle:    "Succès",
		SuccessMessage:  "La musique a été ajoutée avec succès.",
		FailureFallback: "Une erreur est survenue lors de l'ajout de la musique.",
		OnSuccess: func(ctx context.Context) error {
			return fetch.Splice(ctx, d.Musics, created, fetch.Prepend[dto.Music])
		},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EditMusic opens the edit form on a listed music.
func (d *Dashboard) EditMusic(id int64) (MusicForm, error) {
	music, ok := fetch.FindByID(d.Musics.Data(), id)
	if !ok {
		return MusicForm{}, pkgerrors.New(pkgerrors.CodeNotFound, "Musique non trouvée")
	}
	d.MusicForm.Cancel()
	d.MusicForm.Load(musicFormFrom(music))
	d.mu.Lock()
	d.editing = id
	d.mu.Unlock()
	return d.MusicForm.Edit(), nil
}

// SaveMusic submits the open edit form and swaps the updated music into the
// list.
func (d *Dashboard) SaveMusic(ctx context.Context) error {
	d.mu.Lock()
	id := d.editing
	d.mu.Unlock()

	err := d.MusicForm.Save(ctx, func(ctx context.Context, draft MusicForm) (MusicForm, error) {
		update, err := draft.update()
		if err != nil {
			return draft, err
		}
		var updated dto.Music
		err = d.dispatcher.Dispatch(ctx, mutation.Mutation{
			Name:            "artist.music_update",
			Request:         apiclient.Put(musicPath(id), update),
			Result:          &updated,
			SuccessTitle:    "Succès",
			SuccessMessage:  "Musique mise à jour",
			FailureFallback: "Impossible de mettre à jour la musique",
			OnSuccess: func(ctx context.Context) error {
				return fetch.Splice(ctx, d.Musics, updated, fetch.ReplaceByID[dto.Music])
			},
		})
		if err != nil {
			return draft, err
		}
		if updated.ID == 0 {
			return draft, nil
		}
		return musicFormFrom(updated), nil
	})
	if form.Invalid(err) {
		notifications.Error(ctx, d.notifier, "Champs manquants", pkgerrors.UserMessage(err, ""))
	}
	return err
}

// CancelMusic closes the edit form without calling the API.
func (d *Dashboard) CancelMusic() {
	d.MusicForm.Cancel()
}

// DeleteMusic removes a music once the artist confirms.
func (d *Dashboard) DeleteMusic(ctx context.Context, id int64) error {
	title := fmt.Sprintf("#%d", id)
	if music, ok := fetch.FindByID(d.Musics.Data(), id); ok {
		title = music.Title
	}
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "artist.music_delete",
		Request:         apiclient.Delete(musicPath(id)),
		Confirm:         fmt.Sprintf("Êtes-vous sûr de vouloir supprimer la musique %q ?", title),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Musique supprimée avec succès",
		FailureFallback: "Impossible de supprimer la musique",
		OnSuccess: func(context.Context) error {
			d.Musics.Mutate(func(list []dto.Music) []dto.Music { return fetch.RemoveByID(list, id) })
			return nil
		},
	})
}

// PublishMusic makes a music visible in the catalog.
func (d *Dashboard) PublishMusic(ctx context.Context, id int64) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "artist.music_publish",
		Request:         apiclient.Post(musicPath(id)+"/publier", nil),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Musique publiée avec succès",
		FailureFallback: "Impossible de publier la musique",
		OnSuccess:       d.Musics.Refresh,
	})
}

// ArchiveMusic withdraws a music from the catalog.
func (d *Dashboard) ArchiveMusic(ctx context.Context, id int64) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "artist.music_archive",
		Request:         apiclient.Post(musicPath(id)+"/archiver", nil),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Musique archivée avec succès",
		FailureFallback: "Impossible d'archiver la musique",
		OnSuccess:       d.Musics.Refresh,
	})
}

// GenerateCode issues a payment code for a paid music. Hours below one fall
// back to a day.
func (d *Dashboard) GenerateCode(ctx context.Context, id int64, expiryHours int) (*dto.PaymentCode, error) {
	if expiryHours <= 0 {
		expiryHours = defaultExpiryHours
	}
	var code dto.PaymentCode
	err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name: "artist.code_generate",
		Request: apiclient.Request{
			Method: http.MethodPost,
			Path:   musicPath(id) + "/generate-code",
			Query:  apiclient.Params{}.Add("expiry_hours", strconv.Itoa(expiryHours)),
		},
		Validate: func() error {
			if music, ok := fetch.FindByID(d.Musics.Data(), id); ok && music.IsFree {
				return pkgerrors.New(pkgerrors.CodeValidation, "Impossible de générer un code de paiement pour une musique gratuite")
			}
			return nil
		},
		InvalidTitle:    "Erreur",
		Result:          &code,
		FailureFallback: "Impossible de générer le code de paiement",
		OnSuccess: func(ctx context.Context) error {
			if code.Code != "" {
				notifications.Success(ctx, d.notifier, "Code généré", code.Code)
			}
			return fetch.Splice(ctx, d.PaymentCodes, code, fetch.Prepend[dto.PaymentCode])
		},
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// CodeRow is one rendered payment code.
type CodeRow struct {
	Code      string
	Music     string
	Price     string
	State     string
	ExpiresAt string
}

// CodeRows renders the payment codes with their music titles.
func (d *Dashboard) CodeRows() []CodeRow {
	musics := d.Musics.Data()
	codes := d.PaymentCodes.Data()
	rows := make([]CodeRow, 0, len(codes))
	for _, c := range codes {
		title := fmt.Sprintf("Musique #%d", c.MusicID)
		if m, ok := fetch.FindByID(musics, c.MusicID); ok {
			title = m.Title
		}
		rows = append(rows, CodeRow{
			Code:      c.Code,
			Music:     title,
			Price:     c.Value().StringFixed(2) + " €",
			State:     c.StateLabel(),
			ExpiresAt: c.ExpiresAt.FormatDate(),
		})
	}
	return rows
}

func musicPath(id int64) string {
	return fmt.Sprintf("%s/%d", pathMusics, id)
}
