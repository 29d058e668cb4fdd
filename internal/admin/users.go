package admin

import (
	"context"
	"fmt"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/internal/mutation"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

// User list filter keys, in query order.
const (
	FilterRole     = "role"
	FilterIsActive = "is_active"
	FilterSearch   = "search"
)

// UserAction is the toggle button offered on a user row.
type UserAction string

const (
	ActionActivate   UserAction = "activate"
	ActionDeactivate UserAction = "deactivate"
)

// UserFilter narrows the user list. Empty fields and "all" apply no constraint.
type UserFilter struct {
	Role     string
	IsActive string
	Search   string
}

func (f UserFilter) filters() fetch.Filters {
	return fetch.NewFilters(FilterRole, FilterIsActive, FilterSearch).
		Set(FilterRole, orAll(f.Role)).
		Set(FilterIsActive, orAll(f.IsActive)).
		Set(FilterSearch, orAll(f.Search))
}

func orAll(value string) string {
	if value == "" {
		return fetch.All
	}
	return value
}

// UserRow is one rendered line of the user table.
type UserRow struct {
	ID        int64
	Username  string
	Email     string
	Role      string
	Badge     string
	Action    UserAction
	CreatedAt string
}

// FilterUsers applies f and re-fetches the list when it changed.
func (d *Dashboard) FilterUsers(ctx context.Context, f UserFilter) error {
	return d.Users.SetFilters(ctx, f.filters())
}

// UserRows renders the fetched users.
func (d *Dashboard) UserRows() []UserRow {
	users := d.Users.Data()
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		action := ActionActivate
		if u.IsActive {
			action = ActionDeactivate
		}
		rows = append(rows, UserRow{
			ID:        u.ID,
			Username:  u.Handle(),
			Email:     u.Email,
			Role:      u.Role.Label(),
			Badge:     u.ActivityLabel(),
			Action:    action,
			CreatedAt: u.CreatedAt.FormatDate(),
		})
	}
	return rows
}

// UserDetail loads a single account.
func (d *Dashboard) UserDetail(ctx context.Context, id int64) (*dto.User, error) {
	var user dto.User
	if err := d.client.Do(ctx, apiclient.Get(userPath(id), nil), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ActivateUser re-enables an account, then re-fetches the list.
func (d *Dashboard) ActivateUser(ctx context.Context, id int64) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "admin.user_activate",
		Request:         apiclient.Post(userPath(id)+"/activate", nil),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Utilisateur activé",
		FailureFallback: "Impossible d'activer l'utilisateur",
		OnSuccess:       d.Users.Refresh,
	})
}

// DeactivateUser disables an account, then re-fetches the list.
func (d *Dashboard) DeactivateUser(ctx context.Context, id int64) error {
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "admin.user_deactivate",
		Request:         apiclient.Post(userPath(id)+"/deactivate", nil),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Utilisateur désactivé",
		FailureFallback: "Impossible de désactiver l'utilisateur",
		OnSuccess:       d.Users.Refresh,
	})
}

// ToggleUser performs the row's action for a listed user.
func (d *Dashboard) ToggleUser(ctx context.Context, id int64) error {
	user, ok := fetch.FindByID(d.Users.Data(), id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("user %d is not listed", id))
	}
	if user.IsActive {
		return d.DeactivateUser(ctx, id)
	}
	return d.ActivateUser(ctx, id)
}

// DeleteUser removes an account once the user confirms.
func (d *Dashboard) DeleteUser(ctx context.Context, id int64) error {
	name := fmt.Sprintf("#%d", id)
	if user, ok := fetch.FindByID(d.Users.Data(), id); ok {
		name = user.Handle()
	}
	return d.dispatcher.Dispatch(ctx, mutation.Mutation{
		Name:            "admin.user_delete",
		Request:         apiclient.Delete(userPath(id)),
		Confirm:         confirmDeletion("l'utilisateur", name),
		SuccessTitle:    "Succès",
		SuccessMessage:  "Utilisateur supprimé",
		FailureFallback: "Impossible de supprimer l'utilisateur",
		OnSuccess:       d.Users.Refresh,
	})
}

func userPath(id int64) string {
	return fmt.Sprintf("%s/%d", pathUsers, id)
}
