// Package cmd implements the command-line interface for the snapkv
// server: flag and environment handling, logger setup and the server
// lifecycle.
package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashbeam/snapkv/app/config"
	"github.com/hashbeam/snapkv/app/store"
	"github.com/hashbeam/snapkv/app/tcp"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "snapkv",
	Short: "In-memory key-value server with RDB-compatible snapshots",
	Long: `snapkv is an in-memory key-value server speaking the RESP protocol.
It supports string values with millisecond TTLs and persists its dataset
as a Redis-compatible binary snapshot. Flags can also be set via
environment variables with the SNAPKV_ prefix (e.g. SNAPKV_PORT=6380).`,
	PreRunE: processConfig,
	RunE:    run,
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().Int("port", 6379, "TCP port to listen on")
	rootCmd.PersistentFlags().String("host", "0.0.0.0", "address to bind the listener to")
	rootCmd.PersistentFlags().String("dir", "databases", "directory holding the snapshot file")
	rootCmd.PersistentFlags().String("dbfilename", "dump.rdb", "snapshot file name")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func initEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("snapkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	switch viper.GetString("log-level") {
	case "debug":
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "warn":
		log.Logger = log.Logger.Level(zerolog.WarnLevel)
	case "error":
		log.Logger = log.Logger.Level(zerolog.ErrorLevel)
	default:
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	cfg := config.Configuration{
		Host:       viper.GetString("host"),
		Port:       viper.GetInt("port"),
		Dir:        viper.GetString("dir"),
		DBFilename: viper.GetString("dbfilename"),
	}

	datastore := store.NewMemory()

	if err := datastore.LoadSnapshot(cfg.Dir, cfg.DBFilename); err != nil {
		// A broken snapshot is not fatal, the server starts empty.
		log.Error().Err(err).Str("dir", cfg.Dir).Str("dbfilename", cfg.DBFilename).
			Msg("failed to load snapshot")
	}

	server, err := tcp.NewServer(cfg, datastore)
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.ListenAddr()).Msg("failed to bind listener")
		return err
	}

	server.Start()
	log.Info().Str("addr", cfg.ListenAddr()).Msg("server started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	server.Stop()

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
