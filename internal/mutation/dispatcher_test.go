package mutation

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

type item struct{ ID int64 }

func (i item) GetID() int64 { return i.ID }

type fakeSender struct {
	requests []apiclient.Request
	err      error
}

func (f *fakeSender) Do(ctx context.Context, req apiclient.Request, out any) error {
	f.requests = append(f.requests, req)
	return f.err
}

func loadedSlot(t *testing.T) *fetch.Slot[[]item] {
	t.Helper()
	slot := fetch.NewSlot("items", func(context.Context, fetch.Filters) ([]item, error) {
		return []item{{ID: 4}, {ID: 5}}, nil
	})
	require.NoError(t, slot.Mount(context.Background()))
	return slot
}

func deleteMutation(slot *fetch.Slot[[]item], id int64) Mutation {
	return Mutation{
		Name:         "users.delete",
		Request:      apiclient.Delete("/admin/users/5"),
		Confirm:      "Supprimer cet utilisateur ?",
		SuccessTitle: "Utilisateur supprimé",
		OnSuccess: func(ctx context.Context) error {
			slot.Mutate(func(list []item) []item { return fetch.RemoveByID(list, id) })
			return nil
		},
	}
}

func TestDismissedConfirmationSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	rec := &notifications.Recorder{}
	declined := ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	d := NewDispatcher(sender, rec, declined, nil)
	slot := loadedSlot(t)

	err := d.Dispatch(context.Background(), deleteMutation(slot, 5))
	assert.True(t, Declined(err))
	assert.Empty(t, sender.requests)
	assert.Len(t, slot.Data(), 2)
	assert.Empty(t, rec.All())
}

func TestNilConfirmerDeclines(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, nil, nil, nil)
	err := d.Dispatch(context.Background(), deleteMutation(loadedSlot(t), 5))
	assert.True(t, Declined(err))
	assert.Empty(t, sender.requests)
}

func TestAcceptedConfirmationSendsOneDelete(t *testing.T) {
	sender := &fakeSender{}
	rec := &notifications.Recorder{}
	var prompts []string
	accept := ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		prompts = append(prompts, prompt)
		return true, nil
	})
	d := NewDispatcher(sender, rec, accept, nil)
	slot := loadedSlot(t)

	require.NoError(t, d.Dispatch(context.Background(), deleteMutation(slot, 5)))
	require.Len(t, sender.requests, 1)
	assert.Equal(t, "DELETE", sender.requests[0].Method)
	assert.Equal(t, "/admin/users/5", sender.requests[0].Path)
	assert.Equal(t, []string{"Supprimer cet utilisateur ?"}, prompts)
	assert.Equal(t, []item{{ID: 4}}, slot.Data())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notifications.LevelSuccess, last.Level)
}

func TestFailureNotifiesDetailAndKeepsState(t *testing.T) {
	sender := &fakeSender{err: pkgerrors.FromResponse(400, "Impossible de supprimer un administrateur")}
	rec := &notifications.Recorder{}
	d := NewDispatcher(sender, rec, AutoConfirm, nil)
	slot := loadedSlot(t)

	err := d.Dispatch(context.Background(), deleteMutation(slot, 5))
	require.Error(t, err)
	assert.Len(t, slot.Data(), 2)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notifications.LevelError, last.Level)
	assert.Equal(t, "Erreur", last.Title)
	assert.Equal(t, "Impossible de supprimer un administrateur", last.Message)
}

func TestFailureWithoutDetailUsesFallback(t *testing.T) {
	sender := &fakeSender{err: pkgerrors.FromResponse(500, "")}
	rec := &notifications.Recorder{}
	d := NewDispatcher(sender, rec, nil, nil)

	err := d.Dispatch(context.Background(), Mutation{
		Request:         apiclient.Post("/admin/users/5/activate", nil),
		FailureFallback: "Impossible d'activer l'utilisateur",
	})
	require.Error(t, err)
	last, _ := rec.Last()
	assert.Equal(t, "Impossible d'activer l'utilisateur", last.Message)
}

func TestValidationFailureSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	rec := &notifications.Recorder{}
	d := NewDispatcher(sender, rec, AutoConfirm, nil)

	err := d.Dispatch(context.Background(), Mutation{
		Request: apiclient.Post("/api/artiste/musiques", nil),
		Validate: func() error {
			return pkgerrors.New(pkgerrors.CodeValidation, "Veuillez remplir tous les champs obligatoires.")
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, sender.requests)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "Champs manquants", last.Title)
	assert.Equal(t, "Veuillez remplir tous les champs obligatoires.", last.Message)
}

func TestMissingCredentialAsksToLogInAgain(t *testing.T) {
	sender := &fakeSender{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")}
	rec := &notifications.Recorder{}
	d := NewDispatcher(sender, rec, nil, nil)

	require.Error(t, d.Dispatch(context.Background(), Mutation{Request: apiclient.Put("/api/client/me", nil)}))
	last, _ := rec.Last()
	assert.Equal(t, "Erreur d'authentification", last.Title)
}

func TestSyncFailureDoesNotFailMutation(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, nil, nil, nil)
	err := d.Dispatch(context.Background(), Mutation{
		Request:   apiclient.Put("/admin/musics/42/status", nil),
		OnSuccess: func(context.Context) error { return pkgerrors.New(pkgerrors.CodeDependency, "refetch failed") },
	})
	assert.NoError(t, err)
}

func TestPrompt(t *testing.T) {
	cases := map[string]bool{"o\n": true, "oui\n": true, "Y\n": true, "\n": false, "non\n": false, "": false}
	for input, want := range cases {
		var out bytes.Buffer
		p := NewPrompt(strings.NewReader(input), &out)
		got, err := p.Confirm(context.Background(), "Continuer ?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Continuer ? [o/N] ", out.String())
	}
}
