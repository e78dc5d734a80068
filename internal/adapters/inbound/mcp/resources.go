package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/preflightci/preflight/internal/adapters/outbound/config"
	"github.com/preflightci/preflight/internal/adapters/outbound/detector"
	"github.com/preflightci/preflight/internal/adapters/outbound/history"
	"github.com/preflightci/preflight/internal/domain"
)

// registerResources registers all preflight MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	// 1. preflight://project - detected project info
	s.AddResource(
		mcplib.NewResource(
			"preflight://project",
			"Project Info",
			mcplib.WithResourceDescription("Detected kind, entry point and commands for the project, with .preflight.yaml overrides applied"),
			mcplib.WithMIMEType("application/json"),
		),
		handleProjectResource(projectPath),
	)

	// 2. preflight://history - recorded validation runs
	s.AddResource(
		mcplib.NewResource(
			"preflight://history",
			"Run History",
			mcplib.WithResourceDescription("Recent validation runs recorded for the project"),
			mcplib.WithMIMEType("application/json"),
		),
		handleHistoryResource(projectPath),
	)

	// 3. preflight://config - raw target overrides
	s.AddResource(
		mcplib.NewResource(
			"preflight://config",
			"Target Config",
			mcplib.WithResourceDescription("Overrides loaded from the project's .preflight.yaml"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(projectPath),
	)
}

func handleProjectResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		info, err := detector.New().Detect(projectPath)
		if err != nil {
			return nil, fmt.Errorf("detection failed: %w", err)
		}
		cfg, err := config.New().Load(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		data, err := json.MarshalIndent(cfg.Apply(info), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling project info: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "preflight://project",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleHistoryResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		entries, err := history.New().Load(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		if entries == nil {
			entries = []domain.RunEntry{}
		}

		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling history: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "preflight://history",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleConfigResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := config.New().Load(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}

		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "preflight://config",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
