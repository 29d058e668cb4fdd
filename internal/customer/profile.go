package customer

import (
	"context"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/form"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

const passwordMismatch = "Les mots de passe ne correspondent pas"

// ProfileForm is the editable part of the client profile.
type ProfileForm struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
}

func profileFormFrom(u dto.User) ProfileForm {
	return ProfileForm{Username: u.Handle(), Email: u.Email, FullName: u.FullName}
}

// PasswordChange is the password dialog.
type PasswordChange struct {
	Current string `json:"current_password"`
	New     string `json:"new_password" validate:"required,min=6"`
	Confirm string `json:"confirm_password" validate:"required"`
}

// LoadProfile fetches the profile and statistics together.
func (d *Dashboard) LoadProfile(ctx context.Context) error {
	err := fetch.RefreshAll(ctx, d.Profile, d.Statistics)
	if d.Profile.Snapshot().Loaded {
		d.ProfileForm.Load(profileFormFrom(d.Profile.Data()))
	}
	return err
}

// SaveProfile submits the open profile draft.
func (d *Dashboard) SaveProfile(ctx context.Context) error {
	err := d.ProfileForm.Save(ctx, func(ctx context.Context, draft ProfileForm) (ProfileForm, error) {
		var updated dto.User
		err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
			Name: "client.profile_update",
			Request: apiclient.Put(pathProfile, dto.ProfileUpdate{
				Username: &draft.Username,
				Email:    &draft.Email,
				FullName: &draft.FullName,
			}),
			Result:          &updated,
			SuccessTitle:    "Succès",
			SuccessMessage:  "Profil mis à jour avec succès",
			FailureFallback: "Impossible de mettre à jour le profil",
			OnSuccess: func(ctx context.Context) error {
				return fetch.Replace(ctx, d.Profile, updated)
			},
		})
		if err != nil {
			return draft, err
		}
		if updated.ID == 0 {
			return draft, nil
		}
		return profileFormFrom(updated), nil
	})
	if form.Invalid(err) {
		notifications.Error(ctx, d.notifier, "Champs invalides", pkgerrors.UserMessage(err, ""))
	}
	return err
}

// ChangePassword sends the new password once both entries match.
func (d *Dashboard) ChangePassword(ctx context.Context, change PasswordChange) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:    "client.password_change",
		Request: apiclient.Put(pathProfile, dto.ProfileUpdate{Password: &change.New}),
		Validate: func() error {
			if change.New != change.Confirm {
				return pkgerrors.New(pkgerrors.CodeValidation, passwordMismatch)
			}
			return form.Check(change, "Le mot de passe doit contenir au moins 6 caractères")
		},
		InvalidTitle:    "Erreur",
		SuccessTitle:    "Succès",
		SuccessMessage:  "Mot de passe modifié",
		FailureFallback: "Impossible de modifier le mot de passe",
	})
}
