package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/soundmarket/internal/customer"
	"github.com/angelmondragon/soundmarket/pkg/dto"
)

func clientDashboard(a *app) (*customer.Dashboard, error) {
	return customer.New(customer.Params{
		Client:      a.client,
		Notifier:    a.notifier,
		Confirmer:   a.confirmer,
		Logger:      a.logg,
		Metrics:     a.metrics,
		DownloadDir: a.cfg.Download.Dir,
	})
}

func clientRun(run func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, a *app, args []string) error {
		d, err := clientDashboard(a)
		if err != nil {
			return err
		}
		return run(cmd, a, d, args)
	})
}

func clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client dashboard",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "home",
			Short: "Listening and purchase summary",
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), customer.PageHome); err != nil {
					return err
				}
				stats := d.Statistics.Data()
				summary := d.Summary()
				return render(a.out, stats, func(w io.Writer) {
					fields(w,
						"Achats", stats.TotalPurchases,
						"Dépensé", stats.TotalSpent.StringFixed(2)+" €",
						"Favoris", fmt.Sprintf("%d (%d payants)", stats.TotalFavorites, d.PaidFavorites()),
						"Temps d'écoute", stats.PlayTimeLabel(),
						"Genre préféré", stats.FavoriteGenre,
						"Téléchargements", summary.Downloads,
						"Encore téléchargeables", summary.Downloadable,
					)
				})
			}),
		},
		clientCatalogCmd(),
		&cobra.Command{
			Use:   "music <id>",
			Short: "Show one published music",
			Args:  cobra.ExactArgs(1),
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				music, err := d.MusicDetail(cmd.Context(), id)
				if err != nil {
					return err
				}
				return render(a.out, music, func(w io.Writer) {
					fields(w,
						"Titre", music.Title,
						"Artiste", music.ArtistName(),
						"Genre", music.Genre,
						"Durée", music.DurationLabel(),
						"Prix", music.PriceLabel(),
						"Écoutes", music.PlayCount,
						"Description", music.Description,
					)
				})
			}),
		},
		clientBuyCmd(),
		&cobra.Command{
			Use:   "purchases",
			Short: "List your purchases",
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), customer.PageDownloads); err != nil {
					return err
				}
				purchases := d.Purchases.Data()
				summary := d.Summary()
				return render(a.out, purchases, func(w io.Writer) {
					row(w, "MUSIQUE", "TITRE", "PAYÉ", "TÉLÉCHARGEMENTS", "ACHETÉ LE")
					for _, p := range purchases {
						row(w, p.MusicID, p.Title(), p.AmountPaid.StringFixed(2)+" €", p.DownloadLabel(), p.PurchasedAt.FormatDate())
					}
					fmt.Fprintf(w, "\n%d achats, %d téléchargements, %d encore téléchargeables\n", summary.Purchases, summary.Downloads, summary.Downloadable)
				})
			}),
		},
		&cobra.Command{
			Use:   "download <music-id>",
			Short: "Download a purchased or free music",
			Args:  cobra.ExactArgs(1),
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := d.Mount(cmd.Context(), customer.PageDownloads); err != nil {
					return err
				}
				path, err := d.Download(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, path)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "stream <music-id> <path>",
			Short: "Save the audio of a playable music without using a download",
			Args:  cobra.ExactArgs(2),
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return d.Stream(cmd.Context(), id, args[1])
			}),
		},
		&cobra.Command{
			Use:   "favorites",
			Short: "List your favorites",
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), customer.PageFavorites); err != nil {
					return err
				}
				favorites := d.Favorites.Data()
				return render(a.out, favorites, func(w io.Writer) {
					row(w, "ID", "MUSIQUE", "TITRE", "PRIX", "AJOUTÉ LE")
					for _, f := range favorites {
						title, price := fmt.Sprintf("Musique #%d", f.MusicID), ""
						if f.Music != nil {
							title, price = f.Music.Title, f.Music.PriceLabel()
						}
						row(w, f.ID, f.MusicID, title, price, f.CreatedAt.FormatDate())
					}
				})
			}),
		},
		clientFavoriteCmd(),
		clientHistoryCmd(),
		clientPlayCmd(),
		clientProfileCmd(),
		clientPasswordCmd(),
	)
	return cmd
}

func clientCatalogCmd() *cobra.Command {
	var filter customer.CatalogFilter
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the published catalog",
		RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
			if err := d.BrowseCatalog(cmd.Context(), filter); err != nil {
				return err
			}
			musics := d.Catalog.Data()
			return render(a.out, musics, func(w io.Writer) {
				row(w, "ID", "TITRE", "ARTISTE", "GENRE", "DURÉE", "PRIX")
				for _, m := range musics {
					row(w, m.ID, m.Title, m.ArtistName(), m.Genre, m.DurationLabel(), m.PriceLabel())
				}
			})
		}),
	}
	flags := cmd.Flags()
	flags.IntVar(&filter.Skip, "skip", 0, "Rows to skip")
	flags.IntVar(&filter.Limit, "limit", 0, "Page size, at most 100")
	flags.StringVar(&filter.Genre, "genre", "", "Genre")
	flags.StringVar(&filter.IsFree, "free", "", "true or false")
	flags.Int64Var(&filter.ArtistID, "artist", 0, "Artist id")
	flags.StringVar(&filter.Search, "search", "", "Search title and description")
	flags.StringVar(&filter.MinPrice, "min-price", "", "Minimum price")
	flags.StringVar(&filter.MaxPrice, "max-price", "", "Maximum price")
	return cmd
}

func clientBuyCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "buy <music-id>",
		Short: "Redeem a payment code for a music",
		Args:  cobra.ExactArgs(1),
		RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			purchase, err := d.Buy(cmd.Context(), id, code)
			if err != nil {
				return err
			}
			return render(a.out, purchase, func(w io.Writer) {
				fields(w,
					"Musique", purchase.Title(),
					"Payé", purchase.AmountPaid.StringFixed(2)+" €",
					"Téléchargements", purchase.DownloadLabel(),
				)
			})
		}),
	}
	cmd.Flags().StringVar(&code, "code", "", "Payment code given by the artist")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func clientFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Add or remove a favorite",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <music-id>",
			Short: "Bookmark a music",
			Args:  cobra.ExactArgs(1),
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				fav, err := d.AddFavorite(cmd.Context(), id)
				if err != nil {
					return err
				}
				return render(a.out, fav, func(w io.Writer) {
					fields(w, "Favori", fav.ID, "Musique", fav.MusicID)
				})
			}),
		},
		&cobra.Command{
			Use:   "remove <favorite-id>",
			Short: "Remove a bookmark",
			Args:  cobra.ExactArgs(1),
			RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := d.Mount(cmd.Context(), customer.PageFavorites); err != nil {
					return err
				}
				return d.RemoveFavorite(cmd.Context(), id)
			}),
		},
	)
	return cmd
}

func clientHistoryCmd() *cobra.Command {
	var skip, limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your listening history",
		RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
			if err := d.BrowseHistory(cmd.Context(), skip, limit); err != nil {
				return err
			}
			return renderHistory(a, d.History.Data())
		}),
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "Rows to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size, at most 100")
	return cmd
}

func renderHistory(a *app, entries []dto.PlayHistory) error {
	return render(a.out, entries, func(w io.Writer) {
		row(w, "MUSIQUE", "TITRE", "DURÉE ÉCOUTÉE", "ÉCOUTÉ LE")
		for _, e := range entries {
			title := fmt.Sprintf("Musique #%d", e.MusicID)
			if e.Music != nil {
				title = e.Music.Title
			}
			row(w, e.MusicID, title, fmt.Sprintf("%ds", e.DurationPlayed), e.PlayedAt.FormatDate())
		}
	})
}

func clientPlayCmd() *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "play <music-id>",
		Short: "Record a listening session",
		Args:  cobra.ExactArgs(1),
		RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			entry, err := d.RecordPlay(cmd.Context(), id, seconds)
			if err != nil {
				return err
			}
			return renderHistory(a, []dto.PlayHistory{*entry})
		}),
	}
	cmd.Flags().IntVar(&seconds, "seconds", 0, "Seconds listened")
	return cmd
}

func clientProfileCmd() *cobra.Command {
	var next customer.ProfileForm
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
			if err := d.Mount(cmd.Context(), customer.PageProfile); err != nil {
				return err
			}
			if anyChanged(cmd, "username", "email", "full-name") {
				flags := cmd.Flags()
				d.ProfileForm.Edit()
				d.ProfileForm.Update(func(f *customer.ProfileForm) {
					if flags.Changed("username") {
						f.Username = next.Username
					}
					if flags.Changed("email") {
						f.Email = next.Email
					}
					if flags.Changed("full-name") {
						f.FullName = next.FullName
					}
				})
				if err := d.SaveProfile(cmd.Context()); err != nil {
					return err
				}
			}
			return renderUser(a, d.Profile.Data())
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&next.Username, "username", "", "Username")
	flags.StringVar(&next.Email, "email", "", "E-mail")
	flags.StringVar(&next.FullName, "full-name", "", "Full name")
	return cmd
}

func clientPasswordCmd() *cobra.Command {
	var change customer.PasswordChange
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: clientRun(func(cmd *cobra.Command, a *app, d *customer.Dashboard, _ []string) error {
			return d.ChangePassword(cmd.Context(), change)
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&change.Current, "current", "", "Current password")
	flags.StringVar(&change.New, "new", "", "New password")
	flags.StringVar(&change.Confirm, "confirm", "", "New password again")
	return cmd
}
