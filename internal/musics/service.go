package musics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/soundmarket/internal/media"
	"github.com/angelmondragon/soundmarket/pkg/db"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/security"
)

const (
	msgMusicNotFound  = "Musique non trouvée"
	msgFreeCode       = "Impossible de générer un code de paiement pour une musique gratuite"
	msgInvalidStatus  = "Statut invalide"
	msgInvalidPrice   = "Prix invalide"
	msgTitleRequired  = "Le titre est requis"
	msgAudioRequired  = "Le fichier audio est requis"
	msgExpiryRange    = "La durée de validité doit être comprise entre 1 et 720 heures"
	defaultCodeExpiry = 24
	maxCodeExpiry     = 720
	codeAttempts      = 5
)

type repository interface {
	Create(ctx context.Context, music *models.Music) error
	FindByID(ctx context.Context, id int64) (*models.Music, error)
	FindOwned(ctx context.Context, artistID, id int64) (*models.Music, error)
	ListByArtist(ctx context.Context, artistID int64) ([]models.Music, error)
	List(ctx context.Context, filter Filter) ([]models.Music, error)
	Save(ctx context.Context, music *models.Music, at time.Time) error
	SetStatus(ctx context.Context, id int64, status enums.MusicStatus, at time.Time) error
	Delete(ctx context.Context, id int64) error
	CreateCode(ctx context.Context, code *models.PaymentCode) error
	CodeExists(ctx context.Context, code string) (bool, error)
	ListCodes(ctx context.Context, artistID *int64) ([]models.PaymentCode, error)
}

// ServiceParams bundles the music service dependencies.
type ServiceParams struct {
	Repo   repository
	Media  *media.Store
	Logger *logger.Logger
	Now    func() time.Time
	// NewCode generates voucher strings; defaults to security.NewPaymentCode.
	NewCode func() string
}

// Service owns artist uploads, moderation and the public catalog.
type Service struct {
	repo    repository
	media   *media.Store
	logg    *logger.Logger
	now     func() time.Time
	newCode func() string
}

// NewService validates params and builds the service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("musics repository required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media store required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.NewCode == nil {
		params.NewCode = security.NewPaymentCode
	}
	return &Service{
		repo:    params.Repo,
		media:   params.Media,
		logg:    params.Logger,
		now:     func() time.Time { return params.Now().UTC() },
		newCode: params.NewCode,
	}, nil
}

// ListMine returns the artist's catalogue in every state.
func (s *Service) ListMine(ctx context.Context, artistID int64) ([]dto.Music, error) {
	rows, err := s.repo.ListByArtist(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing artist musics")
	}
	return FromModels(rows), nil
}

// GetMine returns one of the artist's musics.
func (s *Service) GetMine(ctx context.Context, artistID, id int64) (*dto.Music, error) {
	music, err := s.owned(ctx, artistID, id)
	if err != nil {
		return nil, err
	}
	out := FromModel(music)
	return &out, nil
}

// Create stores the uploaded files and inserts the music. Free music is
// stored with a zero price.
func (s *Service) Create(ctx context.Context, artistID int64, in UploadInput) (*dto.Music, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgTitleRequired)
	}
	if in.Audio == nil || in.Audio.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgAudioRequired)
	}
	if in.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidPrice)
	}
	status := enums.MusicStatusDraft
	if in.Status != "" {
		if !in.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus)
		}
		status = in.Status
	}

	if err := media.CheckExtension(enums.MediaKindAudio, in.Audio.Name); err != nil {
		return nil, err
	}
	if in.Cover != nil && in.Cover.Name != "" {
		if err := media.CheckExtension(enums.MediaKindCover, in.Cover.Name); err != nil {
			return nil, err
		}
	}

	audio, err := s.media.Save(ctx, enums.MediaKindAudio, in.Audio.Name, in.Audio.Content)
	if err != nil {
		return nil, err
	}

	var coverPath *string
	if in.Cover != nil && in.Cover.Name != "" && in.Cover.Content != nil {
		cover, err := s.media.Save(ctx, enums.MediaKindCover, in.Cover.Name, in.Cover.Content)
		if err != nil {
			s.media.Remove(ctx, audio.Path)
			return nil, err
		}
		coverPath = &cover.Path
	}

	price := decimal.Zero
	if !in.IsFree {
		price = in.Price.Round(2)
	}
	music := &models.Music{
		Title:          strings.TrimSpace(in.Title),
		Description:    optional(in.Description),
		Genre:          optional(strings.TrimSpace(in.Genre)),
		FilePath:       audio.Path,
		CoverImagePath: coverPath,
		IsFree:         in.IsFree,
		Price:          price,
		Status:         status,
		ArtistID:       artistID,
	}
	if err := s.repo.Create(ctx, music); err != nil {
		s.media.Remove(ctx, audio.Path)
		if coverPath != nil {
			s.media.Remove(ctx, *coverPath)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating music")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"music_id": music.ID, "artist_id": artistID, "bytes": audio.Size}), "music uploaded")
	out := FromModel(music)
	return &out, nil
}

// Update applies the provided fields to one of the artist's musics.
func (s *Service) Update(ctx context.Context, artistID, id int64, update dto.MusicUpdate) (*dto.Music, error) {
	music, err := s.owned(ctx, artistID, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgTitleRequired)
		}
		music.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		music.Description = optional(*update.Description)
	}
	if update.Genre != nil {
		music.Genre = optional(strings.TrimSpace(*update.Genre))
	}
	if update.IsFree != nil {
		music.IsFree = *update.IsFree
	}
	if update.Price != nil {
		if update.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidPrice)
		}
		music.Price = update.Price.Round(2)
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus)
		}
		music.Status = *update.Status
	}
	if music.IsFree {
		music.Price = decimal.Zero
	}

	if err := s.repo.Save(ctx, music, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving music")
	}
	out := FromModel(music)
	return &out, nil
}

// Delete removes one of the artist's musics and its files.
func (s *Service) Delete(ctx context.Context, artistID, id int64) error {
	music, err := s.owned(ctx, artistID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, music)
}

// Publish makes the music visible in the catalog.
func (s *Service) Publish(ctx context.Context, artistID, id int64) error {
	return s.transition(ctx, artistID, id, enums.MusicStatusPublished)
}

// Archive withdraws the music from the catalog.
func (s *Service) Archive(ctx context.Context, artistID, id int64) error {
	return s.transition(ctx, artistID, id, enums.MusicStatusArchived)
}

// GenerateCode issues a single-use voucher priced at the music's current
// price. expiryHours <= 0 means the 24 hour default.
func (s *Service) GenerateCode(ctx context.Context, artistID, id int64, expiryHours int) (*dto.PaymentCode, error) {
	if expiryHours <= 0 {
		expiryHours = defaultCodeExpiry
	}
	if expiryHours > maxCodeExpiry {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgExpiryRange)
	}

	music, err := s.owned(ctx, artistID, id)
	if err != nil {
		return nil, err
	}
	if music.IsFree {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgFreeCode)
	}

	value, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	code := &models.PaymentCode{
		Code:      value,
		MusicID:   music.ID,
		Price:     music.Price,
		ExpiresAt: now.Add(time.Duration(expiryHours) * time.Hour),
	}
	if err := s.repo.CreateCode(ctx, code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment code")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"music_id": music.ID, "code_id": code.ID}), "payment code generated")
	out := CodeFromModel(code)
	return &out, nil
}

// Codes lists the vouchers issued for the artist's musics.
func (s *Service) Codes(ctx context.Context, artistID int64) ([]dto.PaymentCode, error) {
	rows, err := s.repo.ListCodes(ctx, &artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payment codes")
	}
	return CodesFromModels(rows), nil
}

// AllCodes lists every voucher on the platform.
func (s *Service) AllCodes(ctx context.Context) ([]dto.PaymentCode, error) {
	rows, err := s.repo.ListCodes(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payment codes")
	}
	return CodesFromModels(rows), nil
}

// List returns musics across all artists for moderation.
func (s *Service) List(ctx context.Context, filter Filter) ([]dto.Music, error) {
	filter.PublishedOnly = false
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing musics")
	}
	return FromModels(rows), nil
}

// SetStatus moves any music to the status named by raw.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (*dto.Music, error) {
	status, err := enums.ParseMusicStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidStatus)
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, status, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating music status")
	}
	music, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := FromModel(music)
	return &out, nil
}

// Remove deletes any music and its files.
func (s *Service) Remove(ctx context.Context, id int64) error {
	music, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, music)
}

// Browse lists the published catalog.
func (s *Service) Browse(ctx context.Context, filter Filter) ([]dto.Music, error) {
	filter.PublishedOnly = true
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "browsing catalog")
	}
	return FromModels(rows), nil
}

// GetPublished returns one published music.
func (s *Service) GetPublished(ctx context.Context, id int64) (*dto.Music, error) {
	music, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if music.Status != enums.MusicStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgMusicNotFound)
	}
	out := FromModel(music)
	return &out, nil
}

func (s *Service) transition(ctx context.Context, artistID, id int64, status enums.MusicStatus) error {
	if _, err := s.owned(ctx, artistID, id); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, id, status, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating music status")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"music_id": id, "status": status}), "music status changed")
	return nil
}

func (s *Service) remove(ctx context.Context, music *models.Music) error {
	if err := s.repo.Delete(ctx, music.ID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgMusicNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting music")
	}
	s.media.Remove(ctx, music.FilePath)
	if music.CoverImagePath != nil {
		s.media.Remove(ctx, *music.CoverImagePath)
	}
	s.logg.Info(s.logg.WithField(ctx, "music_id", music.ID), "music deleted")
	return nil
}

func (s *Service) owned(ctx context.Context, artistID, id int64) (*models.Music, error) {
	music, err := s.repo.FindOwned(ctx, artistID, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgMusicNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading music")
	}
	return music, nil
}

func (s *Service) load(ctx context.Context, id int64) (*models.Music, error) {
	music, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgMusicNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading music")
	}
	return music, nil
}

func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := s.newCode()
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking payment code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique payment code")
}
