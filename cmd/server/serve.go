package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/actionplan/internal/config"
	"github.com/rpggio/actionplan/internal/domain/account"
	"github.com/rpggio/actionplan/internal/domain/activity"
	"github.com/rpggio/actionplan/internal/domain/attachment"
	"github.com/rpggio/actionplan/internal/domain/session"
	"github.com/rpggio/actionplan/internal/domain/workitem"
	"github.com/rpggio/actionplan/internal/mcp"
	"github.com/rpggio/actionplan/internal/outbox"
	"github.com/rpggio/actionplan/internal/router"
	"github.com/rpggio/actionplan/internal/sqlite"
	"github.com/rpggio/actionplan/internal/telemetry"
	"github.com/rpggio/actionplan/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot over HTTP or stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	shutdownTelemetry, err := telemetry.Init(telemetry.Options{
		Enabled: cfg.Telemetry.Enabled,
		Writer:  os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	metrics, err := telemetry.NewMetrics(telemetry.Meter())
	if err != nil {
		return err
	}

	sessions := session.NewStore(cfg.Session.Timeout, logger)
	rtr := router.New(router.Config{
		Services:  newServices(db, cfg, logger),
		Sessions:  sessions,
		Sender:    outbox.NewSender(nil, logger),
		Metrics:   metrics,
		PageSize:  cfg.Listing.PageSize,
		OpTimeout: cfg.Storage.OpTimeout,
		Logger:    logger,
	})

	mcpServer := mcp.NewServer(mcp.Config{
		Events:        rtr,
		Resolver:      sqlite.NewAPIKeyRepository(db),
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		DefaultHandle: cfg.Transport.StdioHandle,
		Version:       version,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sessions.Run(ctx, cfg.Session.SweepInterval)
	})

	if cfg.Transport.Mode == config.TransportStdio {
		g.Go(func() error {
			// Stdin closing ends the process.
			defer cancel()
			logger.Info("starting stdio transport", "handle", cfg.Transport.StdioHandle)
			if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return fmt.Errorf("stdio server: %w", err)
			}
			return nil
		})
	} else {
		runHTTP(ctx, g, cfg, logger, rtr, db, mcpServer)
	}

	err = g.Wait()
	logger.Info("shut down")
	return err
}

func newServices(db *sqlite.DB, cfg config.Config, logger *slog.Logger) router.Services {
	workItemRepo := sqlite.NewWorkItemRepository(db)
	workItems := workitem.NewService(workItemRepo, workitem.NewGenerator(time.UTC), logger)
	return router.Services{
		Accounts:   account.NewService(sqlite.NewAccountRepository(db), logger),
		WorkItems:  workItems,
		Activities: activity.NewService(sqlite.NewActivityRepository(db), logger),
		Attachments: attachment.NewService(sqlite.NewAttachmentRepository(db), workItems, attachment.Limits{
			MaxSizeBytes: cfg.Uploads.MaxSizeBytes(),
			AllowedTypes: cfg.Uploads.AllowedTypes,
		}, logger),
	}
}

func runHTTP(ctx context.Context, g *errgroup.Group, cfg config.Config, logger *slog.Logger, events transport.EventHandler, db *sqlite.DB, mcpServer *sdkmcp.Server) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{
		Addr: addr,
		Handler: transport.NewServer(transport.Config{
			Events:        events,
			Health:        db,
			WebhookSecret: cfg.Transport.WebhookSecret,
			MCP:           mcpHandler,
			Logger:        logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
}
