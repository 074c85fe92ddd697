package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"scrapecheck/pkg/analyzer"
	"scrapecheck/pkg/audit"
	"scrapecheck/pkg/config"
	"scrapecheck/pkg/discover"
	"scrapecheck/pkg/fetch"
	"scrapecheck/pkg/models"
	"scrapecheck/pkg/probe"
	"scrapecheck/pkg/robots"
	"scrapecheck/pkg/score"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	configFileFlag := flag.String("config", "", "Path to YAML config file (optional)")
	urlFlag := flag.String("url", "", "Analyze a single URL")
	domainFlag := flag.String("domain", "", "Discover candidate URLs for a domain")
	auditFlag := flag.Bool("audit", false, "Audit discovered URLs (with -domain)")
	jsonFlag := flag.Bool("json", false, "Emit JSON instead of human-readable output")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	mcpFlag := flag.Bool("mcp", false, "Run as an MCP server on stdio")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	appCfg, err := loadConfig(*configFileFlag, log)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if *mcpFlag {
		os.Exit(runMCPServer(appCfg, log))
	}

	if *urlFlag == "" && *domainFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: scrapecheck -url <url> | -domain <domain> [-audit] [-json]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Cancellable context tied to SIGINT/SIGTERM for cooperative shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	app := buildApp(appCfg, log)

	switch {
	case *urlFlag != "":
		os.Exit(app.runSingleAnalysis(ctx, *urlFlag, *jsonFlag))
	case *domainFlag != "":
		os.Exit(app.runDomainMode(ctx, *domainFlag, *auditFlag, *jsonFlag))
	}
}

// app bundles the wired-up engines behind the CLI
type app struct {
	analyzer   *analyzer.Analyzer
	discoverer *discover.Discoverer
	engine     *audit.Engine
	log        *logrus.Logger
}

func buildApp(appCfg *config.AppConfig, log *logrus.Logger) *app {
	transport := fetch.NewTransport(appCfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(transport, appCfg, log)
	robotsInterpreter := robots.NewInterpreter(fetcher, appCfg, log)
	prober := probe.NewProber(fetcher, appCfg, log)
	urlAnalyzer := analyzer.NewAnalyzer(fetcher, robotsInterpreter, prober, appCfg, log)

	var search *discover.SearchClient
	if appCfg.SearchConfigured() {
		search = discover.NewSearchClient(appCfg, log)
	} else {
		log.Debug("Search API credentials not configured, search discovery stage disabled")
	}
	discoverer := discover.NewDiscoverer(fetcher, robotsInterpreter, search, appCfg, log)
	engine := audit.NewEngine(urlAnalyzer, appCfg, log)

	return &app{analyzer: urlAnalyzer, discoverer: discoverer, engine: engine, log: log}
}

func loadConfig(path string, log *logrus.Logger) (*config.AppConfig, error) {
	var appCfg config.AppConfig
	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, &appCfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}
	appCfg.ApplyEnvOverrides()
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}
	return &appCfg, nil
}

func (a *app) runSingleAnalysis(ctx context.Context, rawURL string, asJSON bool) int {
	result, err := a.analyzer.Analyze(ctx, rawURL)
	if err != nil {
		a.log.Errorf("Analysis failed: %v", err)
		return 1
	}
	breakdown := score.Calculate(result)

	if asJSON {
		printJSON(map[string]interface{}{"analysis": result, "score": breakdown})
		return 0
	}

	fmt.Printf("URL:            %s\n", result.URL)
	fmt.Printf("Final URL:      %s\n", result.FinalURL)
	fmt.Printf("Status:         %d\n", result.Status)
	fmt.Printf("Redirects:      %d\n", len(result.Redirects))
	fmt.Printf("JS required:    %v\n", result.JSRequired)
	for _, protection := range result.BotProtections {
		fmt.Printf("Protection:     %s (%s) - %s\n", protection.Type, protection.Confidence, protection.Detail)
	}
	if result.RobotsTxt != nil {
		fmt.Printf("robots.txt:     exists=%v allowed=%v\n", result.RobotsTxt.Exists, result.RobotsTxt.Allowed)
	}
	if result.RateLimit != nil {
		fmt.Printf("Rate limiting:  detected=%v\n", result.RateLimit.Detected)
	}
	if result.Error != "" {
		fmt.Printf("Error:          %s\n", result.Error)
	}
	fmt.Printf("Score:          %d/100\n", breakdown.FinalScore)
	fmt.Printf("Recommendation: %s\n", breakdown.Recommendation)
	return 0
}

func (a *app) runDomainMode(ctx context.Context, domain string, runAudit, asJSON bool) int {
	discovery, err := a.discoverer.Discover(ctx, domain)
	if err != nil {
		a.log.Errorf("Discovery failed: %v", err)
		return 1
	}

	if !runAudit {
		if asJSON {
			printJSON(discovery)
		} else {
			fmt.Printf("Discovered %d URLs for %s (root status %d):\n",
				len(discovery.DiscoveredURLs), discovery.Domain, discovery.RootStatus)
			for _, discovered := range discovery.DiscoveredURLs {
				fmt.Printf("  [%s] %s\n", discovered.Source, discovered.URL)
			}
		}
		return 0
	}

	urls := make([]string, 0, len(discovery.DiscoveredURLs))
	for _, discovered := range discovery.DiscoveredURLs {
		urls = append(urls, discovered.URL)
	}

	results := a.engine.Run(ctx, urls, func(progress models.AuditProgress) {
		a.log.WithFields(logrus.Fields{
			"completed": progress.Completed,
			"total":     progress.Total,
			"batch":     progress.CurrentBatch,
			"percent":   fmt.Sprintf("%.0f%%", progress.Percent),
		}).Info("Audit progress")
	})
	summary := audit.GenerateSummary(results)

	if asJSON {
		printJSON(map[string]interface{}{"discovery": discovery, "results": results, "summary": summary})
		return 0
	}

	fmt.Printf("Audited %d URLs: %d accessible, %d blocked, %d JS-required, avg score %.1f\n",
		summary.TotalURLs, summary.Accessible, summary.Blocked, summary.JSRequired, summary.AverageScore)
	for _, result := range results {
		fmt.Printf("  %3d  %-16s %s\n", result.ScrapeLikelihoodScore, result.Recommendation, result.URL)
	}
	if len(summary.BestEntryPoints) > 0 {
		fmt.Println("Best entry points:")
		for _, entryPoint := range summary.BestEntryPoints {
			fmt.Printf("  %s\n", entryPoint)
		}
	}
	return 0
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
	}
}
