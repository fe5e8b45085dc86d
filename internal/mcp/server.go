// Package mcp exposes the bot over the Model Context Protocol. Each tool
// call becomes one chat event for the caller's handle, and the router's
// replies come back as the tool result.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/actionplan/internal/chat"
)

// EventHandler handles one inbound chat event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev chat.Event)
}

// Config contains server configuration.
type Config struct {
	// Events must send its replies via an outbox.Sender.
	Events        EventHandler
	Resolver      HandleResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// DefaultHandle is the chat handle used when auth is off.
	DefaultHandle string
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "actionplan",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is a local single-user surface; it never authenticates.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultHandle))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Events)

	return server
}
