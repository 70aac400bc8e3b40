package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/choremane/internal/auth"
	"github.com/dukerupert/choremane/internal/config"
	"github.com/dukerupert/choremane/internal/database"
	"github.com/dukerupert/choremane/internal/export"
	"github.com/dukerupert/choremane/internal/middleware"
	"github.com/dukerupert/choremane/internal/server"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	if cfg.Auth.AllowHeader {
		logger.Warn("X-User-Email header authentication is enabled; do not expose this server directly")
	}

	uploader := export.NewUploader(archiveConfig(cfg), logger.With("component", "export"))
	if uploader == nil {
		logger.Info("export archiving disabled", "reason", "archive bucket or credentials not configured")
	}

	srv := server.New(db, cfg, verifier, uploader, logger)
	go srv.RunCleanup(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("choremane listening", "addr", httpServer.Addr, "db", cfg.Database.Path, "version", cfg.Version.Tag)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newVerifier builds the bearer token verifier from cfg. It returns a nil
// Verifier when no key is configured, which is only allowed together with
// header authentication.
func newVerifier(cfg config.AuthConfig) (middleware.Verifier, error) {
	keys := auth.StaticKeys{Secret: []byte(cfg.Secret)}
	if cfg.PublicKeyFile != "" {
		pub, err := auth.LoadRSAPublicKey(cfg.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		keys.RSA = pub
	}

	methods := keys.Algorithms()
	if len(methods) == 0 {
		if !cfg.AllowHeader {
			return nil, errors.New("no authentication configured: set auth.public_key_file, auth.secret or auth.allow_header")
		}
		return nil, nil
	}
	return auth.NewTokenVerifier(keys, methods, cfg.Issuer, cfg.Audience), nil
}

func archiveConfig(cfg *config.Config) export.S3Config {
	return export.S3Config{
		Endpoint:  cfg.Archive.Endpoint,
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Prefix:    cfg.Archive.Prefix,

		Passphrase: cfg.Archive.Passphrase,
	}
}
