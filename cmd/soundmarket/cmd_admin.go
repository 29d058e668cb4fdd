package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/soundmarket/internal/admin"
	"github.com/angelmondragon/soundmarket/pkg/enums"
)

func adminDashboard(a *app) (*admin.Dashboard, error) {
	return admin.New(admin.Params{
		Client:    a.client,
		Notifier:  a.notifier,
		Confirmer: a.confirmer,
		Logger:    a.logg,
		Metrics:   a.metrics,
	})
}

// adminRun builds the dashboard before calling run.
func adminRun(run func(cmd *cobra.Command, a *app, d *admin.Dashboard, args []string) error) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, a *app, args []string) error {
		d, err := adminDashboard(a)
		if err != nil {
			return err
		}
		return run(cmd, a, d, args)
	})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration dashboard",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "overview",
			Short: "Platform statistics and recent activity",
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, _ []string) error {
				err := d.Mount(cmd.Context(), admin.SectionOverview)
				stats, activity := d.Statistics.Data(), d.Activity.Data()
				out := map[string]any{"statistics": stats, "recent_activity": activity}
				if rerr := render(a.out, out, func(w io.Writer) {
					fields(w,
						"Utilisateurs", fmt.Sprintf("%d (%d actifs, %d inactifs)", stats.TotalUsers, stats.ActiveUsers, stats.InactiveUsers),
						"Artistes", stats.TotalArtists,
						"Clients", stats.TotalClients,
						"Musiques", fmt.Sprintf("%d (%d publiées, %d brouillons, %d archivées)", stats.TotalMusics, stats.PublishedMusics, stats.DraftMusics, stats.ArchivedMusics),
						"Achats", stats.TotalPurchases,
						"Revenus", stats.TotalRevenue.StringFixed(2)+" €",
						"Codes actifs", fmt.Sprintf("%d / %d", stats.ActivePaymentCodes, stats.TotalPaymentCodes),
						"Période", activity.Period,
						"Nouveaux utilisateurs", activity.NewUsers,
						"Nouvelles musiques", activity.NewMusics,
						"Achats récents", activity.RecentPurchases,
						"Écoutes récentes", activity.RecentPlays,
					)
				}); rerr != nil {
					return rerr
				}
				return err
			}),
		},
		adminUsersCmd(),
		&cobra.Command{
			Use:   "user <id>",
			Short: "Show one user",
			Args:  cobra.ExactArgs(1),
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				user, err := d.UserDetail(cmd.Context(), id)
				if err != nil {
					return err
				}
				return renderUser(a, *user)
			}),
		},
		adminUserAction("activate", "Activate a user", (*admin.Dashboard).ActivateUser),
		adminUserAction("deactivate", "Deactivate a user", (*admin.Dashboard).DeactivateUser),
		adminUserAction("toggle", "Flip a user's active flag", (*admin.Dashboard).ToggleUser),
		adminUserAction("delete-user", "Delete a user and their data", (*admin.Dashboard).DeleteUser),
		adminMusicsCmd(),
		&cobra.Command{
			Use:   "music-status <id> <status>",
			Short: "Move a music to draft, published or archived",
			Args:  cobra.ExactArgs(2),
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				status, err := enums.ParseMusicStatus(args[1])
				if err != nil {
					return err
				}
				return d.SetMusicStatus(cmd.Context(), id, status)
			}),
		},
		&cobra.Command{
			Use:   "delete-music <id>",
			Short: "Delete a music",
			Args:  cobra.ExactArgs(1),
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := d.Mount(cmd.Context(), admin.SectionMusics); err != nil {
					return err
				}
				return d.DeleteMusic(cmd.Context(), id)
			}),
		},
		&cobra.Command{
			Use:   "codes",
			Short: "List every payment code",
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), admin.SectionPaymentCodes); err != nil {
					return err
				}
				codes := d.PaymentCodes.Data()
				return render(a.out, codes, func(w io.Writer) {
					row(w, "CODE", "MUSIQUE", "PRIX", "ÉTAT", "EXPIRE")
					for _, c := range codes {
						row(w, c.Code, c.MusicID, c.Value().StringFixed(2), c.StateLabel(), c.ExpiresAt.FormatDate())
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "user-stats",
			Short: "Most engaged users",
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), admin.SectionUserStats); err != nil {
					return err
				}
				stats := d.UserStats.Data()
				return render(a.out, stats, func(w io.Writer) {
					row(w, "UTILISATEUR", "RÔLE", "ACHATS", "FAVORIS")
					for _, s := range stats {
						row(w, s.User.DisplayName(), s.User.Role, s.PurchaseCount, s.FavoriteCount)
					}
				})
			}),
		},
		&cobra.Command{
			Use:   "music-stats",
			Short: "Most engaged musics",
			RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), admin.SectionMusicStats); err != nil {
					return err
				}
				stats := d.MusicStats.Data()
				return render(a.out, stats, func(w io.Writer) {
					row(w, "MUSIQUE", "ARTISTE", "ACHATS", "FAVORIS")
					for _, s := range stats {
						row(w, s.Music.Title, s.Music.ArtistName(), s.PurchaseCount, s.FavoriteCount)
					}
				})
			}),
		},
	)
	return cmd
}

func adminUsersCmd() *cobra.Command {
	var filter admin.UserFilter
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, _ []string) error {
			if err := d.FilterUsers(cmd.Context(), filter); err != nil {
				return err
			}
			rows := d.UserRows()
			return render(a.out, d.Users.Data(), func(w io.Writer) {
				row(w, "ID", "UTILISATEUR", "E-MAIL", "RÔLE", "STATUT", "ACTION", "CRÉÉ LE")
				for _, r := range rows {
					row(w, r.ID, r.Username, r.Email, r.Role, r.Badge, r.Action, r.CreatedAt)
				}
			})
		}),
	}
	cmd.Flags().StringVar(&filter.Role, "role", "", "Filter by role (ADMIN, ARTISTE, CLIENT or all)")
	cmd.Flags().StringVar(&filter.IsActive, "active", "", "Filter by active flag (true, false or all)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Search username, e-mail or name")
	return cmd
}

func adminUserAction(use, short string, action func(*admin.Dashboard, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := d.Mount(cmd.Context(), admin.SectionUsers); err != nil {
				return err
			}
			return action(d, cmd.Context(), id)
		}),
	}
}

func adminMusicsCmd() *cobra.Command {
	var filter admin.MusicFilter
	cmd := &cobra.Command{
		Use:   "musics",
		Short: "List musics",
		RunE: adminRun(func(cmd *cobra.Command, a *app, d *admin.Dashboard, _ []string) error {
			if err := d.FilterMusics(cmd.Context(), filter); err != nil {
				return err
			}
			rows := d.MusicRows()
			return render(a.out, d.Musics.Data(), func(w io.Writer) {
				row(w, "ID", "TITRE", "ARTISTE", "GENRE", "STATUT", "PRIX", "ÉCOUTES", "TÉLÉCHARGEMENTS")
				for _, r := range rows {
					row(w, r.ID, r.Title, r.Artist, r.Genre, r.Label, r.Price, r.Plays, r.Downloads)
				}
			})
		}),
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "Filter by status (DRAFT, PUBLISHED, ARCHIVED or all)")
	cmd.Flags().StringVar(&filter.Genre, "genre", "", "Filter by genre")
	cmd.Flags().StringVar(&filter.IsFree, "free", "", "Filter by price kind (true, false or all)")
	return cmd
}
