package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/soundmarket/internal/artist"
	"github.com/angelmondragon/soundmarket/internal/fetch"
	"github.com/angelmondragon/soundmarket/pkg/dto"
)

func artistDashboard(a *app) (*artist.Dashboard, error) {
	return artist.New(artist.Params{
		Client:    a.client,
		Notifier:  a.notifier,
		Confirmer: a.confirmer,
		Logger:    a.logg,
		Metrics:   a.metrics,
	})
}

func artistRun(run func(cmd *cobra.Command, a *app, d *artist.Dashboard, args []string) error) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, a *app, args []string) error {
		d, err := artistDashboard(a)
		if err != nil {
			return err
		}
		return run(cmd, a, d, args)
	})
}

func artistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artist",
		Aliases: []string{"artiste"},
		Short:   "Artist dashboard",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "home",
			Short: "Statistics summary",
			RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), artist.PageHome); err != nil {
					return err
				}
				stats := d.Statistics.Data()
				return render(a.out, stats, func(w io.Writer) {
					fields(w,
						"Artiste", d.Profile.Data().DisplayName(),
						"Musiques", fmt.Sprintf("%d (%d publiées, %d brouillons)", stats.TotalMusics, stats.PublishedMusics, stats.DraftMusics),
						"Écoutes", stats.TotalPlays,
						"Téléchargements", stats.TotalDownloads,
						"Ventes", stats.TotalSales,
						"Revenus", stats.TotalRevenue.StringFixed(2)+" €",
					)
				})
			}),
		},
		artistMusicsCmd(),
		artistUploadCmd(),
		artistEditCmd(),
		artistMusicAction("delete", "Delete one of your musics", (*artist.Dashboard).DeleteMusic),
		artistMusicAction("publish", "Publish a draft", (*artist.Dashboard).PublishMusic),
		artistMusicAction("archive", "Archive a music", (*artist.Dashboard).ArchiveMusic),
		artistCodeCmd(),
		&cobra.Command{
			Use:   "codes",
			Short: "List your payment codes",
			RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, _ []string) error {
				if err := d.Mount(cmd.Context(), artist.PageCodes); err != nil {
					return err
				}
				rows := d.CodeRows()
				return render(a.out, d.PaymentCodes.Data(), func(w io.Writer) {
					row(w, "CODE", "MUSIQUE", "PRIX", "ÉTAT", "EXPIRE")
					for _, r := range rows {
						row(w, r.Code, r.Music, r.Price, r.State, r.ExpiresAt)
					}
				})
			}),
		},
		artistProfileCmd(),
	)
	return cmd
}

func renderMusics(a *app, musics []dto.Music) error {
	return render(a.out, musics, func(w io.Writer) {
		row(w, "ID", "TITRE", "GENRE", "DURÉE", "STATUT", "PRIX", "ÉCOUTES", "TÉLÉCHARGEMENTS")
		for _, m := range musics {
			row(w, m.ID, m.Title, m.Genre, m.DurationLabel(), m.Status, m.PriceLabel(), m.PlayCount, m.DownloadCount)
		}
	})
}

func artistMusicsCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "musics",
		Short: "List your musics",
		RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, _ []string) error {
			if err := d.Mount(cmd.Context(), artist.PageMusics); err != nil {
				return err
			}
			d.Search(search)
			return renderMusics(a, d.Visible())
		}),
	}
	cmd.Flags().StringVar(&search, "search", "", "Only show titles containing this text")
	return cmd
}

func openFile(path string) (*artist.File, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return &artist.File{Name: filepath.Base(path), Content: f}, f.Close, nil
}

func artistUploadCmd() *cobra.Command {
	upload := artist.NewUpload()
	var audioPath, coverPath string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a new music",
		RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, _ []string) (err error) {
			if audioPath != "" {
				file, closeFn, err := openFile(audioPath)
				if err != nil {
					return err
				}
				defer func() { err = multierr.Append(err, closeFn()) }()
				upload.AudioFile = file
			}
			if coverPath != "" {
				file, closeFn, err := openFile(coverPath)
				if err != nil {
					return err
				}
				defer func() { err = multierr.Append(err, closeFn()) }()
				upload.CoverImage = file
			}
			if err := d.Mount(cmd.Context(), artist.PageMusics); err != nil {
				return err
			}
			created, err := d.UploadMusic(cmd.Context(), upload)
			if err != nil {
				return err
			}
			return renderMusics(a, []dto.Music{*created})
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&upload.Title, "title", "", "Title")
	flags.StringVar(&upload.Description, "description", "", "Description")
	flags.StringVar(&upload.Genre, "genre", "", "Genre")
	flags.BoolVar(&upload.IsFree, "free", upload.IsFree, "Free download")
	flags.StringVar(&upload.Price, "price", "", "Price in euros when not free")
	flags.StringVar(&upload.Status, "status", upload.Status, "draft, published or archived")
	flags.StringVar(&audioPath, "audio", "", "Audio file (mp3, wav, flac, m4a)")
	flags.StringVar(&coverPath, "cover", "", "Cover image (jpg, png, webp)")
	return cmd
}

func artistEditCmd() *cobra.Command {
	var next artist.MusicForm
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your musics",
		Args:  cobra.ExactArgs(1),
		RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := d.Mount(cmd.Context(), artist.PageMusics); err != nil {
				return err
			}
			if _, err := d.EditMusic(id); err != nil {
				return err
			}
			flags := cmd.Flags()
			d.MusicForm.Update(func(f *artist.MusicForm) {
				if flags.Changed("title") {
					f.Title = next.Title
				}
				if flags.Changed("description") {
					f.Description = next.Description
				}
				if flags.Changed("genre") {
					f.Genre = next.Genre
				}
				if flags.Changed("free") {
					f.IsFree = next.IsFree
				}
				if flags.Changed("price") {
					f.Price = next.Price
				}
				if flags.Changed("status") {
					f.Status = next.Status
				}
			})
			if err := d.SaveMusic(cmd.Context()); err != nil {
				d.CancelMusic()
				return err
			}
			music, _ := fetch.FindByID(d.Musics.Data(), id)
			return renderMusics(a, []dto.Music{music})
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&next.Title, "title", "", "Title")
	flags.StringVar(&next.Description, "description", "", "Description")
	flags.StringVar(&next.Genre, "genre", "", "Genre")
	flags.BoolVar(&next.IsFree, "free", false, "Free download")
	flags.StringVar(&next.Price, "price", "", "Price in euros")
	flags.StringVar(&next.Status, "status", "", "DRAFT, PUBLISHED or ARCHIVED")
	return cmd
}

func artistMusicAction(use, short string, action func(*artist.Dashboard, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := d.Mount(cmd.Context(), artist.PageMusics); err != nil {
				return err
			}
			return action(d, cmd.Context(), id)
		}),
	}
}

func artistCodeCmd() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "code <music-id>",
		Short: "Generate a single-use payment code",
		Args:  cobra.ExactArgs(1),
		RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			code, err := d.GenerateCode(cmd.Context(), id, hours)
			if err != nil {
				return err
			}
			return render(a.out, code, func(w io.Writer) {
				fields(w,
					"Code", code.Code,
					"Musique", code.MusicID,
					"Prix", code.Value().StringFixed(2)+" €",
					"Expire", code.ExpiresAt.FormatDate(),
				)
			})
		}),
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "Validity in hours")
	return cmd
}

func artistProfileCmd() *cobra.Command {
	var next artist.ProfileForm
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE: artistRun(func(cmd *cobra.Command, a *app, d *artist.Dashboard, _ []string) error {
			if err := d.Mount(cmd.Context(), artist.PageProfile); err != nil {
				return err
			}
			flags := cmd.Flags()
			if anyChanged(cmd, "username", "email", "full-name", "bio", "website") {
				d.ProfileForm.Edit()
				d.ProfileForm.Update(func(f *artist.ProfileForm) {
					if flags.Changed("username") {
						f.Username = next.Username
					}
					if flags.Changed("email") {
						f.Email = next.Email
					}
					if flags.Changed("full-name") {
						f.FullName = next.FullName
					}
					if flags.Changed("bio") {
						f.ArtistBio = next.ArtistBio
					}
					if flags.Changed("website") {
						f.ArtistWebsite = next.ArtistWebsite
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
	flags.StringVar(&next.ArtistBio, "bio", "", "Biography")
	flags.StringVar(&next.ArtistWebsite, "website", "", "Website")
	return cmd
}
