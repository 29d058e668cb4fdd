package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/soundmarket/internal/auth"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
)

func authService(a *app) (auth.Service, error) {
	return auth.NewService(auth.ServiceParams{
		Client:   a.client,
		Session:  a.session,
		Notifier: a.notifier,
		Logger:   a.logg,
	})
}

// readPassword takes the flag value, or the first line of stdin when the
// flag is "-".
func readPassword(in io.Reader, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func authCommands() []*cobra.Command {
	return []*cobra.Command{loginCmd(), registerCmd(), logoutCmd(), refreshCmd(), whoamiCmd(), statusCmd()}
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			svc, err := authService(a)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			user, err := svc.Login(cmd.Context(), auth.LoginRequest{Username: email, Password: pw})
			if err != nil {
				return err
			}
			return renderUser(a, *user)
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account e-mail")
	cmd.Flags().StringVarP(&password, "password", "p", "-", "Password, or - to read it from stdin")
	return cmd
}

func registerCmd() *cobra.Command {
	var (
		req      dto.Registration
		role     string
		password string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a client or artist account",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			svc, err := authService(a)
			if err != nil {
				return err
			}
			parsed, err := enums.ParseUserRole(role)
			if err != nil {
				return err
			}
			req.Role = parsed
			if req.Password, err = readPassword(cmd.InOrStdin(), password); err != nil {
				return err
			}
			user, err := svc.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return renderUser(a, *user)
		}),
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "Username")
	flags.StringVarP(&req.Email, "email", "e", "", "E-mail")
	flags.StringVarP(&password, "password", "p", "-", "Password, or - to read it from stdin")
	flags.StringVar(&role, "role", "client", "Account role: client or artiste")
	flags.StringVar(&req.FullName, "full-name", "", "Full name")
	flags.StringVar(&req.ArtistBio, "bio", "", "Artist biography")
	flags.StringVar(&req.ArtistWebsite, "website", "", "Artist website")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget it locally",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			svc, err := authService(a)
			if err != nil {
				return err
			}
			return svc.Logout(cmd.Context())
		}),
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored token for a fresh one",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			svc, err := authService(a)
			if err != nil {
				return err
			}
			cred, err := svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out, cred, func(w io.Writer) {
				fields(w, "Rôle", cred.Role, "Expire", cred.ExpiresAt.Local().Format("02/01/2006 15:04"))
			})
		}),
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			svc, err := authService(a)
			if err != nil {
				return err
			}
			user, err := svc.Me(cmd.Context())
			if err != nil {
				return err
			}
			return renderUser(a, *user)
		}),
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without calling the API",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			svc, err := authService(a)
			if err != nil {
				return err
			}
			st, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out, st, func(w io.Writer) {
				fields(w,
					"Profil", st.Profile,
					"Utilisateur", st.Credential.UserID,
					"Rôle", st.Credential.Role,
					"Expiré", st.Expired,
				)
			})
		}),
	}
}

func renderUser(a *app, u dto.User) error {
	return render(a.out, u, func(w io.Writer) {
		fields(w,
			"ID", u.ID,
			"Nom", u.DisplayName(),
			"E-mail", u.Email,
			"Rôle", u.Role,
			"Statut", u.ActivityLabel(),
		)
		if u.Role == enums.UserRoleArtiste {
			fields(w, "Bio", u.ArtistBio, "Site", u.ArtistWebsite)
		}
	})
}
