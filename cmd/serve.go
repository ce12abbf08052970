package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opspanel/panelapi/internal/audit"
	"github.com/opspanel/panelapi/internal/auth"
	"github.com/opspanel/panelapi/internal/repository"
	"github.com/opspanel/panelapi/internal/server"
	"github.com/opspanel/panelapi/internal/services/iam"
	"github.com/opspanel/panelapi/internal/vault"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the panel API server",
	Long:  `Starts the HTTP server exposing authentication, impersonation, and identity administration endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open the encrypted file vault
		v, err := vault.NewFileVault(cfg.DataDir, cfg.VaultSecret)
		if err != nil {
			return fmt.Errorf("failed to open vault at %s: %w", cfg.DataDir, err)
		}
		log.Printf("Vault opened at %s", cfg.DataDir)

		codec, err := auth.NewTokenCodec([]byte(cfg.TokenSigningKey))
		if err != nil {
			return fmt.Errorf("failed to configure token codec: %w", err)
		}

		// Structured audit trail
		zapLogger, err := newZapLogger(cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to configure audit logger: %w", err)
		}
		defer func() { _ = zapLogger.Sync() }()

		svc := iam.NewService(iam.Dependencies{
			Identities:  repository.NewVaultIdentityRepository(v),
			Preferences: repository.NewVaultPreferenceRepository(v),
			Sessions:    repository.NewVaultSessionRepository(v),
			Codec:       codec,
			Audit:       audit.NewZapRecorder(zapLogger),
			Config:      cfg,
		})

		r := server.NewRouter(server.RouterOptions{
			IAM: svc,
			Cfg: cfg,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

func newZapLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
