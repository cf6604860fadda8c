package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"phonebook/internal/auth"
	"phonebook/internal/config"
	"phonebook/internal/db"
	"phonebook/internal/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "phonebook",
	Short: "Contacts organizer with tags, colors and a trash",
	Long: `Phonebook stores contact notes in a local SQLite database and serves
them over a JSON API: active notes, notes grouped by tag, and a trash
from which notes can be restored or deleted for good.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// app holds what every subcommand needs once config is loaded.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	db       *db.DB
	auth     *auth.Auth
	logClose io.Closer
}

func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, closer, err := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	database, err := db.New(filepath.Join(cfg.Data.Dir, "phonebook.db"))
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			database.Close()
			closer.Close()
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = hex.EncodeToString(secretBytes)
		log.Warn().Msg("generated a JWT secret for this run; set PHONEBOOK_AUTH_JWT_SECRET to keep sessions across restarts")
	}

	writers := auth.New(database, auth.Options{
		Secret:     secret,
		LinkTTL:    cfg.Auth.LinkTTL,
		SessionTTL: cfg.Auth.SessionTTL,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		db:       database,
		auth:     writers,
		logClose: closer,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close database")
	}
	a.logClose.Close()
}
