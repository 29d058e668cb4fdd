package artist

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

// ProfileForm is the editable part of the artist profile.
type ProfileForm struct {
	Username      string `json:"username" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	FullName      string `json:"full_name"`
	ArtistBio     string `json:"artist_bio"`
	ArtistWebsite string `json:"artist_website" validate:"omitempty,url"`
}

func profileFormFrom(u dto.User) ProfileForm {
	return ProfileForm{
		Username:      u.Handle(),
		Email:         u.Email,
		FullName:      u.FullName,
		ArtistBio:     u.ArtistBio,
		ArtistWebsite: u.ArtistWebsite,
	}
}

func (f ProfileForm) update() dto.ProfileUpdate {
	return dto.ProfileUpdate{
		Username:      &f.Username,
		Email:         &f.Email,
		FullName:      &f.FullName,
		ArtistBio:     &f.ArtistBio,
		ArtistWebsite: &f.ArtistWebsite,
	}
}

// LoadProfile fetches the profile and shows it in the form.
func (d *Dashboard) LoadProfile(ctx context.Context) error {
	if err := d.Profile.Refresh(ctx); err != nil {
		return err
	}
	d.syncProfileForm()
	return nil
}

func (d *Dashboard) syncProfileForm() {
	if d.Profile.Snapshot().Loaded {
		d.ProfileForm.Load(profileFormFrom(d.Profile.Data()))
	}
}

// SaveProfile submits the open profile draft.
func (d *Dashboard) SaveProfile(ctx context.Context) error {
	err := d.ProfileForm.Save(ctx, func(ctx context.Context, draft ProfileForm) (ProfileForm, error) {
		var updated dto.User
		err := d.dispatcher.Dispatch(ctx, mutation.Mutation{
			Name:            "artist.profile_update",
			Request:         apiclient.Put(pathProfile, draft.update()),
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
