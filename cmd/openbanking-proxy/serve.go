package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xzzpig/openbanking-proxy/internal/api"
	"github.com/xzzpig/openbanking-proxy/internal/core/config"
	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
	"github.com/xzzpig/openbanking-proxy/internal/i18n"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
	"github.com/xzzpig/openbanking-proxy/internal/version"
)

const bannerArt = `{{ .AnsiColor.BrightCyan }}
   ___                   ___             _   _
  / _ \ _ __  ___ _ _   | _ ) __ _ _ _  | |_(_)_ _  __ _
 | (_) | '_ \/ -_) ' \  | _ \/ _' | ' \ | / / | ' \/ _' |
  \___/| .__/\___|_||_| |___/\__,_|_||_||_\_\_|_||_\__, |
       |_|                                         |___/
{{ .AnsiColor.Default }}`

const bannerFooter = ` · {{ .GoVersion }} {{ .GOOS }}/{{ .GOARCH }} · {{ .Now "2006-01-02 15:04:05" }}

`

// shutdownTimeout bounds how long in-flight requests may take after a stop signal.
const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP proxy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Initialize Logger first
		logger.InitLogger(logger.Environment(cfg.App.Environment), logger.LogLevel(cfg.Log.Level), cfg.Log.Levels)
		defer logger.Sync()
		log := logger.Named("cmd.serve")

		if err := i18n.Init(); err != nil {
			return fmt.Errorf("failed to initialize i18n: %w", err)
		}

		if cfg.IsDevelopment() {
			printBanner(cmd.OutOrStdout())
		}

		client := openbanking.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
		r := api.SetupRouter(cfg, client)

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		log.Info("Server starting",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.Duration("upstreamTimeout", cfg.Upstream.Timeout),
			zap.Bool("strictPagination", cfg.Pagination.Strict))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("server failed to start: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		log.Info("Shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info("Server exiting")
		return nil
	},
}

var envFile string

func printBanner(w io.Writer) {
	tmpl := bannerArt + "  " + version.ServiceName + " v" + version.Version + bannerFooter
	banner.Init(w, true, true, strings.NewReader(tmpl))
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}
