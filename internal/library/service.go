package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/angelmondragon/soundmarket/internal/media"
	"github.com/angelmondragon/soundmarket/pkg/db"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/pagination"
	"github.com/angelmondragon/soundmarket/pkg/security"
)

const (
	msgMusicNotFound    = "Musique non trouvée"
	msgFreeMusic        = "Cette musique est gratuite, aucun achat requis"
	msgAlreadyOwned     = "Vous possédez déjà cette musique"
	msgInvalidCode      = "Code de paiement invalide ou expiré"
	msgCodeOtherMusic   = "Ce code de paiement n'est pas valide pour cette musique"
	msgQuotaReached     = "Limite de téléchargements atteinte"
	msgDownloadDenied   = "Vous n'avez pas l'autorisation de télécharger cette musique"
	msgFileNotFound     = "Fichier non trouvé"
	msgAlreadyFavorite  = "Cette musique est déjà dans vos favoris"
	msgFavoriteNotFound = "Favori non trouvé"

	contentTypeDownload = "application/octet-stream"
	contentTypeStream   = "audio/mpeg"
)

type repository interface {
	FindMusic(ctx context.Context, id int64) (*models.Music, error)
	FindCompletedPurchase(ctx context.Context, clientID, musicID int64) (*models.Purchase, error)
	FindCode(ctx context.Context, code string) (*models.PaymentCode, error)
	Redeem(ctx context.Context, code *models.PaymentCode, purchase *models.Purchase) error
	ListPurchases(ctx context.Context, clientID int64) ([]models.Purchase, error)
	RecordDownload(ctx context.Context, musicID int64, purchase *models.Purchase, meta DownloadMeta, at time.Time) error
	RecordPlay(ctx context.Context, entry *models.PlayHistory, countPlay bool) error
	ListHistory(ctx context.Context, userID int64, page pagination.Params) ([]models.PlayHistory, error)
	FavoriteExists(ctx context.Context, userID, musicID int64) (bool, error)
	CreateFavorite(ctx context.Context, favorite *models.Favorite) error
	ListFavorites(ctx context.Context, userID int64) ([]models.Favorite, error)
	DeleteFavorite(ctx context.Context, userID, id int64) error
}

// ServiceParams bundles the library service dependencies.
type ServiceParams struct {
	Repo   repository
	Media  *media.Store
	Logger *logger.Logger
	Now    func() time.Time
}

// Service implements what a client does with the catalog once signed in.
type Service struct {
	repo  repository
	media *media.Store
	logg  *logger.Logger
	now   func() time.Time
}

// NewService validates params and builds the service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("library repository required")
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
	return &Service{
		repo:  params.Repo,
		media: params.Media,
		logg:  params.Logger,
		now:   func() time.Time { return params.Now().UTC() },
	}, nil
}

// Purchase redeems a voucher for a paid music. The checks run in order: the
// music exists, is paid, is not owned yet, the code is usable and belongs to
// the music.
func (s *Service) Purchase(ctx context.Context, clientID int64, req dto.PurchaseRequest) (*dto.Purchase, error) {
	music, err := s.anyMusic(ctx, req.MusicID)
	if err != nil {
		return nil, err
	}
	if music.IsFree {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgFreeMusic)
	}

	if _, err := s.repo.FindCompletedPurchase(ctx, clientID, music.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgAlreadyOwned)
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking ownership")
	}

	now := s.now()
	code, err := s.repo.FindCode(ctx, security.NormalizePaymentCode(req.PaymentCode))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment code")
	}
	if !code.Usable(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCode)
	}
	if code.MusicID != music.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgCodeOtherMusic)
	}

	codeID := code.ID
	purchase := &models.Purchase{
		ClientID:      clientID,
		MusicID:       music.ID,
		PaymentCodeID: &codeID,
		AmountPaid:    code.Price,
		Status:        enums.PaymentStatusCompleted,
		MaxDownloads:  dto.DefaultMaxDownloads,
		PurchasedAt:   now,
	}
	if err := s.repo.Redeem(ctx, code, purchase); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeeming payment code")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"purchase_id": purchase.ID, "music_id": music.ID, "code_id": code.ID}), "purchase completed")
	purchase.Music = music
	out := purchaseFromModel(purchase)
	return &out, nil
}

// Purchases lists the client's purchases.
func (s *Service) Purchases(ctx context.Context, clientID int64) ([]dto.Purchase, error) {
	rows, err := s.repo.ListPurchases(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing purchases")
	}
	out := make([]dto.Purchase, 0, len(rows))
	for i := range rows {
		out = append(out, purchaseFromModel(&rows[i]))
	}
	return out, nil
}

// Download authorises a download and counts it. Free music is always
// allowed; paid music needs a completed purchase with downloads left.
func (s *Service) Download(ctx context.Context, clientID, musicID int64, meta DownloadMeta) (*Delivery, error) {
	music, err := s.anyMusic(ctx, musicID)
	if err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	if !music.IsFree {
		purchase, err = s.repo.FindCompletedPurchase(ctx, clientID, music.ID)
		switch {
		case db.IsNotFound(err):
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgDownloadDenied)
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading purchase")
		case purchase.DownloadCount >= purchase.MaxDownloads:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgQuotaReached)
		}
	}

	if !s.media.Exists(music.FilePath) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgFileNotFound)
	}

	if err := s.repo.RecordDownload(ctx, music.ID, purchase, meta, s.now()); err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgQuotaReached)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording download")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"music_id": music.ID, "paid": purchase != nil}), "download served")
	return &Delivery{
		Path:        music.FilePath,
		FileName:    downloadName(music),
		ContentType: contentTypeDownload,
	}, nil
}

// Stream serves a published music and logs a zero-length listening session.
func (s *Service) Stream(ctx context.Context, clientID, musicID int64) (*Delivery, error) {
	music, err := s.music(ctx, musicID)
	if err != nil {
		return nil, err
	}
	if !s.media.Exists(music.FilePath) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgFileNotFound)
	}

	entry := &models.PlayHistory{UserID: clientID, MusicID: music.ID, PlayedAt: s.now()}
	if err := s.repo.RecordPlay(ctx, entry, true); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording play")
	}
	return &Delivery{Path: music.FilePath, FileName: filepath.Base(music.FilePath), ContentType: contentTypeStream}, nil
}

// RecordPlay stores a listening session with its duration.
func (s *Service) RecordPlay(ctx context.Context, userID int64, req dto.PlayRequest) (*dto.PlayHistory, error) {
	music, err := s.music(ctx, req.MusicID)
	if err != nil {
		return nil, err
	}
	entry := &models.PlayHistory{
		UserID:         userID,
		MusicID:        music.ID,
		PlayedAt:       s.now(),
		DurationPlayed: req.DurationPlayed,
	}
	if err := s.repo.RecordPlay(ctx, entry, false); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording play")
	}
	entry.Music = music
	out := playFromModel(entry)
	return &out, nil
}

// History returns a page of listening sessions.
func (s *Service) History(ctx context.Context, userID int64, page pagination.Params) ([]dto.PlayHistory, error) {
	rows, err := s.repo.ListHistory(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing history")
	}
	out := make([]dto.PlayHistory, 0, len(rows))
	for i := range rows {
		out = append(out, playFromModel(&rows[i]))
	}
	return out, nil
}

// AddFavorite bookmarks a published music once.
func (s *Service) AddFavorite(ctx context.Context, userID int64, req dto.FavoriteRequest) (*dto.Favorite, error) {
	music, err := s.music(ctx, req.MusicID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.FavoriteExists(ctx, userID, music.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking favorite")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgAlreadyFavorite)
	}

	favorite := &models.Favorite{UserID: userID, MusicID: music.ID}
	if err := s.repo.CreateFavorite(ctx, favorite); err != nil {
		if db.IsUniqueViolation(err, "favorites.") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgAlreadyFavorite)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating favorite")
	}
	favorite.Music = music
	out := favoriteFromModel(favorite)
	return &out, nil
}

// Favorites lists the user's bookmarks.
func (s *Service) Favorites(ctx context.Context, userID int64) ([]dto.Favorite, error) {
	rows, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing favorites")
	}
	out := make([]dto.Favorite, 0, len(rows))
	for i := range rows {
		out = append(out, favoriteFromModel(&rows[i]))
	}
	return out, nil
}

// RemoveFavorite deletes one of the user's bookmarks.
func (s *Service) RemoveFavorite(ctx context.Context, userID, favoriteID int64) error {
	if err := s.repo.DeleteFavorite(ctx, userID, favoriteID); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgFavoriteNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting favorite")
	}
	return nil
}

// music loads a published music; drafts and archives read as missing.
func (s *Service) music(ctx context.Context, id int64) (*models.Music, error) {
	music, err := s.anyMusic(ctx, id)
	if err != nil {
		return nil, err
	}
	if music.Status != enums.MusicStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgMusicNotFound)
	}
	return music, nil
}

func (s *Service) anyMusic(ctx context.Context, id int64) (*models.Music, error) {
	music, err := s.repo.FindMusic(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgMusicNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading music")
	}
	return music, nil
}

// downloadName is "<title>.<stored extension>".
func downloadName(music *models.Music) string {
	ext := strings.TrimPrefix(filepath.Ext(music.FilePath), ".")
	if ext == "" {
		return music.Title
	}
	return music.Title + "." + ext
}
