package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
)

// EncounterService defines encounter operations needed by MCP.
type EncounterService interface {
	Start(ctx context.Context, req encounter.StartRequest) (*encounter.Session, error)
	SendMessage(ctx context.Context, sessionID, text string) (*encounter.MessageResult, error)
	PerformAction(ctx context.Context, sessionID, actionType, details string) (*encounter.Session, encounter.Action, error)
	End(ctx context.Context, sessionID, submission string) (*encounter.Session, error)
	Feedback(ctx context.Context, sessionID string) (*encounter.FeedbackReport, error)
	Export(ctx context.Context, sessionID string) (*encounter.Session, *clinicalcase.Definition, error)
	Cases(ctx context.Context) ([]clinicalcase.Summary, error)
	History(ctx context.Context, caseID string, limit int) ([]encounter.ArchivedSummary, error)
	Archived(ctx context.Context, sessionID string) (*encounter.ArchivedEncounter, error)
}

// ReportRenderer renders a scored encounter as a PDF.
type ReportRenderer interface {
	Render(sess *encounter.Session, def *clinicalcase.Definition) ([]byte, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Encounters EncounterService
	Reports    ReportRenderer
}

// Config contains server configuration.
type Config struct {
	Services      Services
	AuthEnabled   bool
	AuthToken     string
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "clinsim",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode is local only; auth applies to HTTP transports.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
