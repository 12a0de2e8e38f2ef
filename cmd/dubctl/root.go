package main

import (
	"os"

	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/labstack/gommon/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultStatusURL = "http://localhost:8002"

func newRootCommand() *cobra.Command {
	var noColorFlag bool
	cfg := viper.New()

	rootCmd := &cobra.Command{
		Use:           "dubctl",
		Short:         "Dubly project status client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("url", "u", defaultStatusURL, "Status service URL, env DUBLY_STATUS_URL")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	_ = cfg.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = cfg.BindEnv("url", "DUBLY_STATUS_URL")

	newFetcher := func() (notify.Fetcher, error) {
		return notify.NewHTTPFetcher(cfg.GetString("url"))
	}
	newColor := func() *color.Color {
		res := color.New()
		if noColorFlag || !isatty.IsTerminal(os.Stdout.Fd()) {
			res.Disable()
		}
		return res
	}
	rootCmd.AddCommand(newStatusCommand(newFetcher, newColor))
	rootCmd.AddCommand(newWatchCommand(newFetcher, newColor))
	return rootCmd
}
