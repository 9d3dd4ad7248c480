package mcp

import (
	"strings"
	"testing"

	"github.com/lucaspbik/drawbom/internal/bom"
	"github.com/lucaspbik/drawbom/internal/config"
	"github.com/lucaspbik/drawbom/internal/learning"
)

func newTestService(t *testing.T) *bom.Service {
	t.Helper()
	svc, err := bom.NewServiceWithStore(bom.ServiceConfig{}, learning.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewServiceWithStore: %v", err)
	}
	return svc
}

func TestNewServerRequiresService(t *testing.T) {
	if _, err := NewServer(config.DefaultConfig(), nil, "test"); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(config.DefaultConfig(), newTestService(t), "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if srv.mcpServer == nil {
		t.Error("expected MCP server to be initialized")
	}
}

func TestFormatExtractionResult(t *testing.T) {
	srv, err := NewServer(config.DefaultConfig(), newTestService(t), "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	result := &bom.BOMExtractionResult{
		ExtractionID:   "ext-1",
		Mode:           bom.ModeTable,
		TablesAccepted: 1,
		ColumnsFound:   []bom.ColumnRole{bom.ColumnRolePosition, bom.ColumnRoleQuantity},
		PagesProcessed: []int{0},
		Items: []bom.BOMItem{
			{
				CandidateItem: bom.CandidateItem{
					Position:    "1",
					Description: "Flansch DN50",
					Quantity:    2,
					Unit:        "st",
					Category:    bom.ComponentFlange,
				},
				Key:        "abc123",
				Confidence: 0.87,
				Provenance: []bom.Source{bom.SourceTable},
				Verdict:    bom.VerdictUnrated,
			},
		},
	}

	text := srv.formatExtractionResult(result)

	for _, want := range []string{
		"Mode: table",
		"Flansch DN50",
		"Key: abc123",
		"Quantity: 2 st",
		"Confidence: 0.87",
		"Sources: table",
		"position, quantity",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted result missing %q:\n%s", want, text)
		}
	}
}
