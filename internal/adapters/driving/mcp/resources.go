package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Marginalia resources.
	uriScheme = "marginalia://"

	// historyLimit bounds the analyses resource listing.
	historyLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "plugins",
		Name:        "plugins",
		Description: "Descriptors of the available analysis plugins",
		MIMEType:    "application/json",
	}, s.handlePluginsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "analyses",
		Name:        "analyses",
		Description: "Recent stored analyses, newest first",
		MIMEType:    "application/json",
	}, s.handleAnalysesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "analyses/{analysisId}",
		Name:        "analysis",
		Description: "A stored analysis with all located comments",
		MIMEType:    "application/json",
	}, s.handleAnalysisResource)
}

// handlePluginsResource returns the plugin catalogue.
func (s *Server) handlePluginsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Analyzer.Plugins())
}

// handleAnalysesResource returns a summary list of stored analyses.
func (s *Server) handleAnalysesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	records, err := s.ports.Analyzer.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}

	type analysisInfo struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		DocumentURI   string `json:"document_uri"`
		TotalFindings int    `json:"total_findings"`
		Failed        int    `json:"failed"`
		CreatedAt     string `json:"created_at"`
	}

	infos := make([]analysisInfo, len(records))
	for i := range records {
		r := &records[i]
		infos[i] = analysisInfo{
			ID:          r.ID,
			Title:       r.Title,
			DocumentURI: r.DocumentURI,
			CreatedAt:   r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if r.Result != nil {
			infos[i].TotalFindings = r.Result.Summary.TotalFindings
			infos[i].Failed = r.Result.Summary.Failed
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleAnalysisResource returns one stored analysis.
func (s *Server) handleAnalysisResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractAnalysisID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Analyzer.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return jsonResource(req.Params.URI, record)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractAnalysisID extracts the ID from a URI like marginalia://analyses/{analysisId}.
func extractAnalysisID(uri string) string {
	const prefix = uriScheme + "analyses/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
