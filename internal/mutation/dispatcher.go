// Package mutation sends the create, update and delete calls dashboards make
// and keeps the fetched view consistent afterwards.
package mutation

import (
	"context"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const (
	defaultFailureTitle = "Erreur"
	defaultInvalidTitle = "Champs manquants"
	defaultFallback     = "Une erreur est survenue."
	authFailureTitle    = "Erreur d'authentification"
	authFailureMessage  = "Veuillez vous reconnecter."
)

// Sender is the part of the API client the dispatcher needs.
type Sender interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Mutation describes one user action.
type Mutation struct {
	// Name identifies the action in logs.
	Name    string
	Request apiclient.Request
	// Confirm, when set, is asked before anything is sent.
	Confirm string
	// Validate runs client-side checks right before sending.
	Validate func() error
	// Result receives the decoded response body.
	Result any

	SuccessTitle    string
	SuccessMessage  string
	FailureTitle    string
	FailureFallback string
	InvalidTitle    string

	// OnSuccess re-fetches or splices the affected view state.
	OnSuccess func(ctx context.Context) error
}

// Dispatcher runs mutations.
type Dispatcher struct {
	client    Sender
	notifier  notifications.Notifier
	confirmer Confirmer
	logg      *logger.Logger
}

// NewDispatcher wires the dispatcher. A nil confirmer declines every prompt.
func NewDispatcher(client Sender, notifier notifications.Notifier, confirmer Confirmer, logg *logger.Logger) *Dispatcher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{client: client, notifier: notifier, confirmer: confirmer, logg: logg}
}

// Dispatch runs m. A declined confirmation returns a CONFIRMATION_DECLINED
// error and sends nothing. On failure the user is notified with the server's
// detail or the fallback text and no view state changes.
func (d *Dispatcher) Dispatch(ctx context.Context, m Mutation) error {
	ctx = d.logg.WithField(ctx, "action", m.Name)

	if m.Validate != nil {
		if err := m.Validate(); err != nil {
			title := m.InvalidTitle
			if title == "" {
				title = defaultInvalidTitle
			}
			notifications.Error(ctx, d.notifier, title, pkgerrors.UserMessage(err, ""))
			return err
		}
	}

	if m.Confirm != "" {
		accepted, err := d.confirm(ctx, m.Confirm)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read confirmation")
		}
		if !accepted {
			d.logg.Debug(ctx, "mutation.declined")
			return pkgerrors.New(pkgerrors.CodeDeclined, "action cancelled")
		}
	}

	if err := d.client.Do(ctx, m.Request, m.Result); err != nil {
		d.fail(ctx, m, err)
		return err
	}

	if m.SuccessTitle != "" {
		notifications.Success(ctx, d.notifier, m.SuccessTitle, m.SuccessMessage)
	}
	if m.OnSuccess != nil {
		if err := m.OnSuccess(ctx); err != nil {
			// the mutation went through; the view will catch up on the next fetch
			d.logg.WarnErr(ctx, "mutation.sync_failed", err)
		}
	}
	return nil
}

func (d *Dispatcher) confirm(ctx context.Context, prompt string) (bool, error) {
	if d.confirmer == nil {
		return false, nil
	}
	return d.confirmer.Confirm(ctx, prompt)
}

func (d *Dispatcher) fail(ctx context.Context, m Mutation, err error) {
	d.logg.Error(ctx, "mutation.failed", err)

	if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) && pkgerrors.StatusOf(err) == 0 {
		notifications.Error(ctx, d.notifier, authFailureTitle, authFailureMessage)
		return
	}

	title := m.FailureTitle
	if title == "" {
		title = defaultFailureTitle
	}
	fallback := m.FailureFallback
	if fallback == "" {
		fallback = defaultFallback
	}
	notifications.Error(ctx, d.notifier, title, pkgerrors.UserMessage(err, fallback))
}

// Declined reports whether err is a declined confirmation.
func Declined(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeDeclined)
}
