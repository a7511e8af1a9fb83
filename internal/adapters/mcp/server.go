package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
	"github.com/olegsavin/invoice-assistant/internal/core/ports"
)

// Server exposes retrieval as MCP tools over stdio, so agent hosts can call
// searchLineItems and getInvoiceMetadata directly.
type Server struct {
	queries ports.QueryService
	log     *slog.Logger
	mcp     *server.MCPServer
}

func NewServer(queries ports.QueryService, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		queries: queries,
		log:     log,
		mcp: server.NewMCPServer(
			"invoice-assistant",
			version,
			server.WithToolCapabilities(false),
		),
	}

	s.mcp.AddTool(mcp.NewTool("searchLineItems",
		mcp.WithDescription("Search invoice line items by meaning and filters. "+
			"Accepts a natural-language query; structured filters like page or invoice number are recognized from the text."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question or search phrase, e.g. 'office chairs on invoice INV-2024-001'."),
		),
	), s.handleSearchLineItems)

	s.mcp.AddTool(mcp.NewTool("getInvoiceMetadata",
		mcp.WithDescription("List ingested invoice documents with their metadata: status, sender, date, total amount."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question about invoice documents, e.g. 'which invoices from March are still processing?'."),
		),
	), s.handleGetInvoiceMetadata)

	return s
}

// ServeStdio blocks until the host closes the stream.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleSearchLineItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.queries.Ask(ctx, query, false)
	if err != nil {
		s.log.Error("searchLineItems failed", "error", err)
		return mcp.NewToolResultError(toolError(err)), nil
	}
	if result.Empty() {
		return mcp.NewToolResultText(domain.NoDataFoundMessage), nil
	}

	raw, err := json.Marshal(result.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleGetInvoiceMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.queries.Ask(ctx, query, false)
	if err != nil {
		s.log.Error("getInvoiceMetadata failed", "error", err)
		return mcp.NewToolResultError(toolError(err)), nil
	}
	if result.Empty() {
		return mcp.NewToolResultText(domain.NoDataFoundMessage), nil
	}
	if result.Kind != domain.KindInvoiceMetadata {
		// The resolver routed to line items; surface those instead of
		// an empty metadata list.
		raw, err := json.Marshal(result.Items)
		if err != nil {
			return nil, fmt.Errorf("marshal line items: %w", err)
		}
		return mcp.NewToolResultText(string(raw)), nil
	}

	raw, err := json.Marshal(result.Invoices)
	if err != nil {
		return nil, fmt.Errorf("marshal invoices: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// toolError maps domain errors to messages safe to show an agent host.
func toolError(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidFilter):
		return "invalid filter value: " + err.Error()
	case domain.IsKind(err, domain.ErrUnclassifiedField):
		return "unsupported filter field: " + err.Error()
	case domain.IsKind(err, domain.ErrTemporary):
		return "upstream service temporarily unavailable, retry later"
	default:
		return "query failed: " + err.Error()
	}
}
