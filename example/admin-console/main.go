package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configDir string
	env       string
)

var rootCmd = &cobra.Command{
	Use:   "admin-console",
	Short: "Media console for banners, services, and the gallery",
	Long: "Admin console API keeping record metadata and their media assets in sync.\n\n" +
		"Records live in a document store, assets in a blob store.",
	SilenceUsage: true,
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rootCmd.PersistentFlags().StringVar(&configDir, "config", "config/", "directory holding <env>.yaml")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "configuration environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogger(cfg LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
