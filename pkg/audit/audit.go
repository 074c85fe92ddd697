// Package audit runs the single-URL analyzer over many URLs in bounded
// concurrent batches with progressive reporting. Each URL goes through the
// exact same analyze+score path as a standalone analysis, so single and
// batch scores always agree.
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"scrapecheck/pkg/analyzer"
	"scrapecheck/pkg/config"
	"scrapecheck/pkg/models"
	"scrapecheck/pkg/score"
	"scrapecheck/pkg/utils"
)

// ProgressFunc receives a snapshot before and after every batch, plus once
// at completion. It is the only externally observable intermediate state.
type ProgressFunc func(models.AuditProgress)

// Engine audits URL lists in batches
type Engine struct {
	analyzer *analyzer.Analyzer
	cfg      *config.AppConfig
	log      *logrus.Entry
}

// NewEngine creates an audit Engine
func NewEngine(urlAnalyzer *analyzer.Analyzer, cfg *config.AppConfig, log *logrus.Logger) *Engine {
	return &Engine{
		analyzer: urlAnalyzer,
		cfg:      cfg,
		log:      log.WithField("component", "audit"),
	}
}

// Run audits urls and returns one result per input URL (modulo the hard
// cap), sorted descending by score with stable tie order. Cancellation via
// ctx is cooperative: it is checked before each batch and at per-URL task
// start; in-flight requests are not force-aborted.
func (e *Engine) Run(ctx context.Context, urls []string, onProgress ProgressFunc) []models.AuditResult {
	if len(urls) > e.cfg.Audit.MaxURLs {
		e.log.Warnf("Truncating audit input from %d to %d URLs", len(urls), e.cfg.Audit.MaxURLs)
		urls = urls[:e.cfg.Audit.MaxURLs]
	}

	total := len(urls)
	batchSize := e.cfg.Audit.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultAuditBatchSize
	}
	totalBatches := (total + batchSize - 1) / batchSize
	results := make([]models.AuditResult, 0, total)

	report := func(completed, currentBatch int, batchResults []models.AuditResult) {
		if onProgress == nil {
			return
		}
		percent := 0.0
		if total > 0 {
			percent = float64(completed) / float64(total) * 100
		}
		onProgress(models.AuditProgress{
			Completed:    completed,
			Total:        total,
			CurrentBatch: currentBatch,
			TotalBatches: totalBatches,
			Percent:      percent,
			BatchResults: batchResults,
		})
	}

	for batchIndex := 0; batchIndex < totalBatches; batchIndex++ {
		start := batchIndex * batchSize
		end := start + batchSize
		if end > total {
			end = total
		}
		batchURLs := urls[start:end]

		// Delay between batches, never after the final one and never once
		// cancellation is requested
		if batchIndex > 0 && ctx.Err() == nil {
			select {
			case <-time.After(e.cfg.Audit.BatchDelay):
			case <-ctx.Done():
			}
		}

		report(len(results), batchIndex+1, nil)

		batchResults := e.runBatch(ctx, batchURLs)
		results = append(results, batchResults...)

		report(len(results), batchIndex+1, batchResults)
	}

	// Stable sort keeps input order among equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ScrapeLikelihoodScore > results[j].ScrapeLikelihoodScore
	})

	report(len(results), totalBatches, nil)

	e.log.WithFields(logrus.Fields{"urls": total, "batches": totalBatches}).Info("Audit complete")
	return results
}

// runBatch analyzes one batch of URLs concurrently. Results come back in
// batch input order; no state is shared between the per-URL tasks.
func (e *Engine) runBatch(ctx context.Context, batchURLs []string) []models.AuditResult {
	batchResults := make([]models.AuditResult, len(batchURLs))
	group, groupCtx := errgroup.WithContext(ctx)

	for n, batchURL := range batchURLs {
		group.Go(func() error {
			batchResults[n] = e.auditOne(groupCtx, batchURL)
			return nil
		})
	}
	group.Wait()
	return batchResults
}

// auditOne runs the shared analyze+score path for a single URL, converting
// every failure mode into a result rather than an error
func (e *Engine) auditOne(ctx context.Context, rawURL string) models.AuditResult {
	// Already-cancelled tasks are short-circuited without a request
	if ctx.Err() != nil {
		return models.AuditResult{
			AnalysisResult: models.AnalysisResult{URL: rawURL, Error: utils.ErrAuditCancelled.Error()},
			Accessible:     false,
			Recommendation: models.RecommendBlocked,
			BlockedReason:  utils.ErrAuditCancelled.Error(),
		}
	}

	analysis, err := e.analyzer.Analyze(ctx, rawURL)
	if err != nil {
		// Invalid input or unexpected failure: worst-case result so one bad
		// URL never aborts the run
		return models.AuditResult{
			AnalysisResult: models.AnalysisResult{URL: rawURL, Error: err.Error()},
			Accessible:     false,
			Recommendation: models.RecommendBlocked,
			BlockedReason:  err.Error(),
		}
	}

	breakdown := score.Calculate(analysis)
	accessible := analysis.Status >= 200 && analysis.Status < 400

	result := models.AuditResult{
		AnalysisResult:        *analysis,
		Accessible:            accessible,
		ScrapeLikelihoodScore: breakdown.FinalScore,
		Recommendation:        score.Band(breakdown.FinalScore),
	}
	if !accessible {
		result.Recommendation = models.RecommendBlocked
		result.BlockedReason = blockedReason(analysis)
	}
	return result
}

func blockedReason(analysis *models.AnalysisResult) string {
	if analysis.Error != "" {
		return analysis.Error
	}
	return fmt.Sprintf("HTTP %d response", analysis.Status)
}
