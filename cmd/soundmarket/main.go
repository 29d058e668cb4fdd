package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var globalOpts struct {
	yes     bool
	profile string
	apiURL  string
	output  string
}

var rootCmd = &cobra.Command{
	Use:           "soundmarket",
	Short:         "SoundMarket console for admins, artists and clients",
	Long:          "SoundMarket drives the music marketplace API from a terminal: log in, then open the dashboard matching your role.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalOpts.yes, "yes", "y", false, "Answer yes to every confirmation prompt")
	flags.StringVar(&globalOpts.profile, "profile", "", "Session profile (overrides SOUNDMARKET_SESSION_PROFILE)")
	flags.StringVar(&globalOpts.apiURL, "api-url", "", "API base URL (overrides SOUNDMARKET_API_BASE_URL)")
	flags.StringVarP(&globalOpts.output, "output", "o", outputText, "Output format: text or json")

	rootCmd.AddCommand(authCommands()...)
	rootCmd.AddCommand(adminCmd(), artistCmd(), clientCmd(), sandboxCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
