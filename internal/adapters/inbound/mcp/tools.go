package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/preflightci/preflight/internal/adapters/outbound/analyzer"
	"github.com/preflightci/preflight/internal/adapters/outbound/browser"
	"github.com/preflightci/preflight/internal/adapters/outbound/builder"
	"github.com/preflightci/preflight/internal/adapters/outbound/config"
	"github.com/preflightci/preflight/internal/adapters/outbound/detector"
	"github.com/preflightci/preflight/internal/adapters/outbound/gitinfo"
	"github.com/preflightci/preflight/internal/adapters/outbound/runner"
	"github.com/preflightci/preflight/internal/adapters/outbound/settings"
	"github.com/preflightci/preflight/internal/adapters/outbound/source"
	"github.com/preflightci/preflight/internal/application"
	"github.com/preflightci/preflight/internal/domain"
)

// registerTools registers all preflight MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	// 1. preflight_validate
	s.AddTool(
		mcplib.NewTool("preflight_validate",
			mcplib.WithDescription("Run the full validation pipeline (static, build, runtime, ui) against the project and return the result as JSON"),
			mcplib.WithString("stages",
				mcplib.Description("Comma-separated stages to run (static,build,runtime,ui); all stages when omitted"),
			),
			mcplib.WithBoolean("skip_ui",
				mcplib.Description("Skip the browser stage even when selected"),
			),
		),
		handleValidate(projectPath),
	)

	// 2. preflight_detect
	s.AddTool(
		mcplib.NewTool("preflight_detect",
			mcplib.WithDescription("Detect the project kind, entry point, build and start commands without running anything"),
		),
		handleDetect(projectPath),
	)

	// 3. preflight_static
	s.AddTool(
		mcplib.NewTool("preflight_static",
			mcplib.WithDescription("Run only the static analysis stage (syntax, imports, lint, secrets) and return its issues"),
		),
		handleStatic(projectPath),
	)
}

// newPipeline assembles the validation service with the same adapters the CLI
// uses, tuned by the user's settings file.
func newPipeline() (*application.ValidateService, *settings.Settings, error) {
	cfg, err := settings.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	svc := application.NewValidateService(
		source.New(),
		detector.New(),
		config.New(),
		analyzer.New(),
		builder.NewWithTimeout(cfg.Timeouts.Build),
		runner.NewWithTimings(cfg.Timeouts.Start, 0),
		browser.New(browser.Options{
			ChromePath:    cfg.Browser.ChromePath,
			AxeScriptURL:  cfg.Browser.AxeScriptURL,
			ScreenshotDir: cfg.Report.Dir,
			NavTimeout:    cfg.Timeouts.Navigation,
		}),
		gitinfo.New(),
	)
	return svc, cfg, nil
}

func handleValidate(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		svc, cfg, err := newPipeline()
		if err != nil {
			return errorResult(err.Error()), nil
		}

		opts := application.RunOptions{Viewports: cfg.Viewports()}

		args := request.GetArguments()
		if stagesStr, ok := args["stages"].(string); ok && stagesStr != "" {
			for _, name := range splitAndTrim(stagesStr) {
				if !domain.IsStage(name) {
					return errorResult(fmt.Sprintf("unknown stage %q (valid: %s)", name, strings.Join(domain.AllStages, ", "))), nil
				}
				opts.Stages = append(opts.Stages, name)
			}
		}
		skipUI, _ := args["skip_ui"].(bool)
		opts.SkipUI = skipUI

		result, err := svc.Validate(ctx, projectPath, opts)
		if err != nil {
			return errorResult(fmt.Sprintf("validation failed: %v", err)), nil
		}
		return jsonResult(result)
	}
}

func handleDetect(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		info, err := detector.New().Detect(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("detection failed: %v", err)), nil
		}
		cfg, err := config.New().Load(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		return jsonResult(cfg.Apply(info))
	}
}

func handleStatic(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		info, err := detector.New().Detect(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("detection failed: %v", err)), nil
		}
		cfg, err := config.New().Load(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		static, err := analyzer.New().Analyze(ctx, cfg.Apply(info))
		if err != nil {
			return errorResult(fmt.Sprintf("static analysis failed: %v", err)), nil
		}
		return jsonResult(static)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
