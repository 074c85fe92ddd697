package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"scrapecheck/pkg/audit"
	"scrapecheck/pkg/config"
	"scrapecheck/pkg/models"
	"scrapecheck/pkg/score"
)

const (
	serverName    = "scrapecheck"
	serverVersion = "1.0.0"
)

// mcpServer wraps the MCP server with the analysis engines and job manager
type mcpServer struct {
	app        *app
	cfg        *config.AppConfig
	jobManager *audit.JobManager
	log        *logrus.Entry
}

// runMCPServer starts a stdio MCP server exposing the analysis tools.
// The MCP protocol uses stdout, so logs go to stderr (logrus default).
func runMCPServer(appCfg *config.AppConfig, log *logrus.Logger) int {
	s := &mcpServer{
		app:        buildApp(appCfg, log),
		cfg:        appCfg,
		jobManager: audit.NewJobManager(),
		log:        log.WithField("component", "mcp"),
	}

	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)
	s.registerTools(srv)

	s.log.Info("Starting MCP server with stdio transport")
	if err := server.ServeStdio(srv); err != nil {
		s.log.Errorf("MCP server error: %v", err)
		return 1
	}
	return 0
}

// registerTools registers all available MCP tools
func (s *mcpServer) registerTools(srv *server.MCPServer) {
	analyzeTool := mcp.NewTool("analyze_url",
		mcp.WithDescription("Analyze a single URL's scrapability: redirects, JS rendering, bot protection, robots.txt, rate limiting, and a 0-100 score"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to analyze (scheme optional, defaults to https)"),
		),
	)
	srv.AddTool(analyzeTool, s.handleAnalyzeURL)

	discoverTool := mcp.NewTool("discover_domain",
		mcp.WithDescription("Discover candidate URLs for a domain via sitemaps, robots.txt, common paths, and search fallback"),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Domain to discover, e.g. 'example.com'"),
		),
	)
	srv.AddTool(discoverTool, s.handleDiscoverDomain)

	auditTool := mcp.NewTool("audit_domain",
		mcp.WithDescription("Discover a domain's URLs and audit them in the background. Returns immediately with a job ID."),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Domain to audit"),
		),
		mcp.WithNumber("max_urls",
			mcp.Description("Cap on audited URLs (default: discovery cap)"),
		),
	)
	srv.AddTool(auditTool, s.handleAuditDomain)

	statusTool := mcp.NewTool("get_audit_status",
		mcp.WithDescription("Get the status, progress, and (when finished) results of an audit job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by audit_domain"),
		),
	)
	srv.AddTool(statusTool, s.handleGetAuditStatus)

	cancelTool := mcp.NewTool("cancel_audit",
		mcp.WithDescription("Cancel a running audit job; already-started requests finish, pending URLs are skipped"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID to cancel"),
		),
	)
	srv.AddTool(cancelTool, s.handleCancelAudit)

	s.log.Infof("Registered %d MCP tools", 5)
}

// handleAnalyzeURL handles the analyze_url tool
func (s *mcpServer) handleAnalyzeURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urlStr := request.GetString("url", "")
	if urlStr == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	result, err := s.app.analyzer.Analyze(ctx, urlStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	breakdown := score.Calculate(result)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"analysis": result,
		"score":    breakdown,
	})), nil
}

// handleDiscoverDomain handles the discover_domain tool
func (s *mcpServer) handleDiscoverDomain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain := request.GetString("domain", "")
	if domain == "" {
		return mcp.NewToolResultError("domain parameter is required"), nil
	}

	result, err := s.app.discoverer.Discover(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("discovery failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleAuditDomain handles the audit_domain tool: discovery runs inline,
// the audit itself runs as a background job
func (s *mcpServer) handleAuditDomain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain := request.GetString("domain", "")
	if domain == "" {
		return mcp.NewToolResultError("domain parameter is required"), nil
	}
	maxURLs := request.GetInt("max_urls", 0)

	discovery, err := s.app.discoverer.Discover(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("discovery failed: %v", err)), nil
	}

	urls := make([]string, 0, len(discovery.DiscoveredURLs))
	for _, discovered := range discovery.DiscoveredURLs {
		urls = append(urls, discovered.URL)
	}
	if maxURLs > 0 && len(urls) > maxURLs {
		urls = urls[:maxURLs]
	}

	job := s.jobManager.CreateJob(discovery.Domain)
	go s.runAuditJob(job.ID, job.Context(), urls)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"job_id":          job.ID,
		"domain":          discovery.Domain,
		"urls_discovered": len(discovery.DiscoveredURLs),
		"urls_to_audit":   len(urls),
		"status":          string(audit.JobStatusPending),
	})), nil
}

// runAuditJob executes an audit in the background, pushing progress into the
// job manager as the engine reports it
func (s *mcpServer) runAuditJob(jobID string, ctx context.Context, urls []string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("PANIC in audit job %s: %v", jobID, r)
			s.jobManager.Fail(jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	s.jobManager.MarkRunning(jobID)
	results := s.app.engine.Run(ctx, urls, func(progress models.AuditProgress) {
		s.jobManager.UpdateProgress(jobID, progress)
	})
	s.jobManager.Complete(jobID, results)
}

// handleGetAuditStatus handles the get_audit_status tool
func (s *mcpServer) handleGetAuditStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown job: %s", jobID)), nil
	}
	return mcp.NewToolResultText(formatJSON(job)), nil
}

// handleCancelAudit handles the cancel_audit tool
func (s *mcpServer) handleCancelAudit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	if !s.jobManager.Cancel(jobID) {
		return mcp.NewToolResultError(fmt.Sprintf("job %s not found or already finished", jobID)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"job_id": jobID,
		"status": string(audit.JobStatusCancelled),
	})), nil
}

// formatJSON renders a value as indented JSON for tool output
func formatJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": \"failed to format result: %v\"}", err)
	}
	return string(data)
}
