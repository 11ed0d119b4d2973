// Package mcpadapter exposes the extraction pipeline as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
	"github.com/acrobyte007/Sustainability/internal/core/usecase"
)

const (
	serverName    = "sustainability-extractor"
	serverVersion = "1.0.0"
)

type Handlers struct {
	extractor ports.IndicatorExtractor
	logger    *slog.Logger
}

func NewHandlers(extractor ports.IndicatorExtractor, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{extractor: extractor, logger: logger}
}

// NewServer registers list_indicators and extract_indicators.
func NewServer(h *Handlers) *server.MCPServer {
	srv := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("list_indicators",
		mcp.WithDescription("List the ESG indicators the extractor looks for, in extraction order."),
	), h.ListIndicators)

	srv.AddTool(mcp.NewTool("extract_indicators",
		mcp.WithDescription("Extract every catalog indicator from a user's uploaded documents. Returns per-indicator results with status and the derived ESRS table."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Namespace that owns the documents"),
		),
		mcp.WithArray("doc_ids",
			mcp.Required(),
			mcp.Description("Document ids to search"),
			mcp.WithStringItems(),
		),
	), h.ExtractIndicators)

	return srv
}

// ServeStdio blocks serving MCP over stdin/stdout.
func ServeStdio(srv *server.MCPServer) error {
	return server.ServeStdio(srv)
}

func (h *Handlers) ListIndicators(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"indicators": h.extractor.Catalog()})
}

func (h *Handlers) ExtractIndicators(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID = strings.TrimSpace(userID)
	docIDs := make([]string, 0)
	for _, id := range req.GetStringSlice("doc_ids", nil) {
		if id = strings.TrimSpace(id); id != "" {
			docIDs = append(docIDs, id)
		}
	}
	if err := usecase.ValidateExtractionInput(userID, docIDs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep := h.extractor.Extract(ctx, userID, docIDs, nil)
	h.logger.Info("mcp_extraction_complete", "user_id", userID, "documents", len(docIDs), "indicators", len(rep.Results))
	return jsonResult(map[string]any{
		"indicators": rep,
		"esrs":       domain.CalculateESRS(rep),
	})
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encode result", err), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
