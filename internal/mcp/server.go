package mcp

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lucaspbik/drawbom/internal/bom"
	"github.com/lucaspbik/drawbom/internal/config"
	"github.com/lucaspbik/drawbom/internal/descriptions"
	"github.com/lucaspbik/drawbom/internal/drawing"
)

// Server exposes the BOM extraction pipeline over the Model Context Protocol
// on stdio.
type Server struct {
	config     *config.Config
	bomService *bom.Service
	mcpServer  *server.MCPServer
	version    string
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, bomService *bom.Service, version string) (*Server, error) {
	if bomService == nil {
		return nil, fmt.Errorf("bomService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		bomService: bomService,
		mcpServer:  mcpServer,
		version:    version,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	bomExtractTool := mcp.NewTool(
		"bom_extract_file",
		mcp.WithDescription(descriptions.BOMExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(bomExtractTool, s.handleBOMExtractFile)

	bomFeedbackTool := mcp.NewTool(
		"bom_record_feedback",
		mcp.WithDescription(descriptions.BOMRecordFeedbackDescription),
		mcp.WithString("item_key",
			mcp.Required(),
			mcp.Description("Stable item key from a previous extraction"),
		),
		mcp.WithString("verdict",
			mcp.Required(),
			mcp.Description("Either 'correct' or 'needs_review'"),
		),
	)
	s.mcpServer.AddTool(bomFeedbackTool, s.handleBOMRecordFeedback)

	bomStatsTool := mcp.NewTool(
		"bom_feedback_stats",
		mcp.WithDescription(descriptions.BOMFeedbackStatsDescription),
	)
	s.mcpServer.AddTool(bomStatsTool, s.handleBOMFeedbackStats)

	bomValidateTool := mcp.NewTool(
		"bom_validate_file",
		mcp.WithDescription(descriptions.BOMValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(bomValidateTool, s.handleBOMValidateFile)
}

// Handler functions
func (s *Server) handleBOMExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.bomService.ExtractFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractionResult(result)), nil
}

func (s *Server) handleBOMRecordFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemKey, err := request.RequireString("item_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verdict, err := request.RequireString("verdict")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.bomService.RecordFeedback(itemKey, bom.Verdict(verdict)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Recorded verdict %q for item %s", verdict, itemKey)), nil
}

func (s *Server) handleBOMFeedbackStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.bomService.FeedbackStats()

	var b strings.Builder
	fmt.Fprintf(&b, "Feedback Statistics\n")
	fmt.Fprintf(&b, "Total feedback events: %d\n", stats.Count)
	fmt.Fprintf(&b, "Correct ratio: %.2f\n", stats.CorrectRatio)
	fmt.Fprintf(&b, "\nSignal weights:\n")

	names := make([]string, 0, len(stats.Weights))
	for name := range stats.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %-32s %.4f", name, stats.Weights[name])
		if n := stats.Support[name]; n > 0 {
			fmt.Fprintf(&b, "  (%d events)", n)
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleBOMValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := drawing.ValidateDocument(path, s.config.MaxFileSize); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed for %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("PDF file %s is valid and readable", path)), nil
}

// formatExtractionResult renders the extraction outcome as readable text.
func (s *Server) formatExtractionResult(result *bom.BOMExtractionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BOM Extraction %s\n", result.ExtractionID)
	fmt.Fprintf(&b, "Mode: %s\n", result.Mode)
	fmt.Fprintf(&b, "Pages processed: %d", len(result.PagesProcessed))
	if len(result.PagesSkipped) > 0 {
		fmt.Fprintf(&b, " (skipped: %v)", result.PagesSkipped)
	}
	b.WriteString("\n")
	if result.TablesAccepted > 0 {
		fmt.Fprintf(&b, "Tables accepted: %d\n", result.TablesAccepted)
		fmt.Fprintf(&b, "Columns found: %s\n", joinColumns(result.ColumnsFound))
	}
	fmt.Fprintf(&b, "Items: %d (annotation: %d, geometry: %d)\n",
		len(result.Items), result.AnnotationItemCount, result.GeometryItemCount)

	for i, item := range result.Items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, itemTitle(item))
		fmt.Fprintf(&b, "\n   Key: %s", item.Key)
		if item.Position != "" {
			fmt.Fprintf(&b, "\n   Position: %s", item.Position)
		}
		if item.PartNumber != "" {
			fmt.Fprintf(&b, "\n   Part number: %s", item.PartNumber)
		}
		fmt.Fprintf(&b, "\n   Quantity: %g", item.Quantity)
		if item.Unit != "" {
			fmt.Fprintf(&b, " %s", item.Unit)
		}
		if item.Material != "" {
			fmt.Fprintf(&b, "\n   Material: %s", item.Material)
		}
		if item.Comment != "" {
			fmt.Fprintf(&b, "\n   Comment: %s", item.Comment)
		}
		if item.Category != bom.ComponentNone {
			fmt.Fprintf(&b, "\n   Category: %s", item.Category)
		}
		fmt.Fprintf(&b, "\n   Confidence: %.2f", item.Confidence)
		fmt.Fprintf(&b, "\n   Sources: %s", joinSources(item.Provenance))
		b.WriteString("\n")
	}

	return b.String()
}

func itemTitle(item bom.BOMItem) string {
	if item.Description != "" {
		return item.Description
	}
	if item.PartNumber != "" {
		return item.PartNumber
	}
	return "(no description)"
}

func joinColumns(cols []bom.ColumnRole) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func joinSources(sources []bom.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Run starts the MCP server on stdio. The snapshot on exit preserves weight
// state that has not hit the periodic cadence yet.
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting BOM MCP server in stdio mode")
		log.Printf("State directory: %s", s.config.StateDir)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	if err := s.bomService.SnapshotState(); err != nil {
		log.Printf("warning: failed to snapshot feedback state: %v", err)
	}
	return nil
}
