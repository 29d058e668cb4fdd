package customer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/form"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

// Buy redeems a payment code for a music; the purchase is listed first.
func (d *Dashboard) Buy(ctx context.Context, musicID int64, paymentCode string) (*dto.Purchase, error) {
	req := dto.PurchaseRequest{MusicID: musicID, PaymentCode: strings.ToUpper(strings.TrimSpace(paymentCode))}
	var purchase dto.Purchase
	err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:    "client.purchase",
		Request: apiclient.Post(pathPurchase, req),
		Validate: func() error {
			return form.Check(req, "Veuillez saisir un code de paiement.")
		},
		Result:          &purchase,
		SuccessTitle:    "Achat réussi",
		SuccessMessage:  "La musique a été ajoutée à vos téléchargements.",
		FailureTitle:    "Achat impossible",
		FailureFallback: "Une erreur est survenue lors de l'achat.",
		OnSuccess: func(ctx context.Context) error {
			return fetch.Splice(ctx, d.Purchases, purchase, fetch.Prepend[dto.Purchase])
		},
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// DownloadSummary aggregates the purchases panel.
type DownloadSummary struct {
	Purchases    int
	Downloads    int
	Downloadable int
}

// Summary totals downloads across the fetched purchases.
func (d *Dashboard) Summary() DownloadSummary {
	purchases := d.Purchases.Data()
	summary := DownloadSummary{Purchases: len(purchases)}
	for _, p := range purchases {
		summary.Downloads += p.DownloadCount
		if p.CanDownload() {
			summary.Downloadable++
		}
	}
	return summary
}

// Download saves a purchased music into the download directory and returns
// the written path. The purchases are re-fetched so the counters move.
func (d *Dashboard) Download(ctx context.Context, musicID int64) (string, error) {
	ctx = d.logg.WithField(ctx, "music_id", musicID)
	title := fmt.Sprintf("musique-%d", musicID)
	for _, p := range d.Purchases.Data() {
		if p.MusicID != musicID {
			continue
		}
		if !p.CanDownload() {
			err := pkgerrors.New(pkgerrors.CodeValidation, "Limite de téléchargements atteinte")
			notifications.Error(ctx, d.notifier, "Téléchargement impossible", err.Message())
			return "", err
		}
		if p.Music != nil && p.Music.Title != "" {
			title = p.Music.Title
		}
	}

	path, err := d.save(ctx, apiclient.Get(fmt.Sprintf("%s/%d", pathDownload, musicID), nil), title+".mp3")
	if err != nil {
		d.logg.Error(ctx, "client.download_failed", err)
		notifications.Error(ctx, d.notifier, "Téléchargement impossible", pkgerrors.UserMessage(err, "Échec du téléchargement"))
		return "", err
	}
	notifications.Success(ctx, d.notifier, "Téléchargement terminé", filepath.Base(path))
	if err := d.Purchases.Refresh(ctx); err != nil {
		d.logg.WarnErr(ctx, "client.download_sync_failed", err)
	}
	return path, nil
}

// Stream writes the audio of a playable music to path without counting a
// download.
func (d *Dashboard) Stream(ctx context.Context, musicID int64, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create stream file")
	}
	_, err = d.client.Download(ctx, apiclient.Get(fmt.Sprintf("%s/%d", pathStream, musicID), nil), file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// save streams into a temporary file, then names it after the server's
// Content-Disposition or fallback.
func (d *Dashboard) save(ctx context.Context, req apiclient.Request, fallback string) (string, error) {
	if err := ensureDir(d.downloadDir); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create download directory")
	}
	tmp, err := os.CreateTemp(d.downloadDir, ".download-*")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create download file")
	}
	tmpName := tmp.Name()
	info, err := d.client.Download(ctx, req, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = pkgerrors.Wrap(pkgerrors.CodeInternal, closeErr, "close download file")
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}

	name := safeFileName(info.FileName)
	if name == "" {
		name = safeFileName(fallback)
	}
	target, err := reserveName(d.downloadDir, name)
	if err != nil {
		_ = os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve download file")
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		_ = os.Remove(target)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move download file")
	}
	return target, nil
}

const maxNameAttempts = 1000

// reserveName creates an empty placeholder for name in dir, or for
// "name (n).ext" when taken, and returns its path. Existing downloads are
// never overwritten.
func reserveName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n < maxNameAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(dir, candidate)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if err := file.Close(); err != nil {
			_ = os.Remove(path)
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %q", name)
}

func safeFileName(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if name == "." || name == ".." {
		return ""
	}
	return name
}
