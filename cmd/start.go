/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/query-retrieval/handler"
	"github.com/tieubaoca/query-retrieval/service"
	"go.uber.org/zap"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the query server",
	Long: `Loads the knowledge base (building it from the documents directory when
no cached one exists) and then serves POST /query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger, true)
		if err != nil {
			logger.Error("failed to initialize", zap.Error(err))
			return err
		}
		defer a.close(context.Background(), logger)

		result := service.Bootstrap(ctx, a.engine, cfg.KnowledgeBase.DocumentsDir, logger)
		logger.Info("knowledge base bootstrap finished",
			zap.Stringer("outcome", result.Outcome),
			zap.String("state", string(result.State())),
			zap.Int("documents", len(result.Paths)),
			zap.NamedError("load_error", result.LoadErr))
		if result.Outcome == service.FatalBuildError {
			if cfg.Bootstrap.FailOnBuildError {
				logger.Error("knowledge base build failed, exiting", zap.Error(result.Err))
				return result.Err
			}
			logger.Warn("continuing without a knowledge base", zap.Error(result.Err))
		}

		gin.SetMode(gin.ReleaseMode)
		queryHandler := handler.NewQueryHandler(service.NewQueryDispatcher(a.engine, logger), a.history, logger)
		router := handler.NewRouter(handler.RouterConfig{
			APIToken:    cfg.APIToken,
			CorsEnabled: cfg.Server.CorsEnabled,
		}, queryHandler, logger)

		server := &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: router,
		}

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.String("addr", server.Addr))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server error", zap.Error(err))
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
