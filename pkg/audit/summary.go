package audit

import (
	"sort"

	"scrapecheck/pkg/models"
)

const (
	bestEntryPointMinScore = 80
	topListSize            = 5
)

// GenerateSummary aggregates a completed audit's result list. Pure: the
// summary is always recomputable from the results and holds no extra state.
func GenerateSummary(results []models.AuditResult) models.AuditSummary {
	summary := models.AuditSummary{
		TotalURLs:       len(results),
		Recommendations: make(map[models.Recommendation]int),
	}

	protectionCounts := make(map[models.ProtectionType]int)
	var accessibleScoreTotal int

	for _, result := range results {
		if result.Accessible {
			summary.Accessible++
			accessibleScoreTotal += result.ScrapeLikelihoodScore
		} else {
			summary.Blocked++
		}
		if result.JSRequired {
			summary.JSRequired++
		}
		summary.Recommendations[result.Recommendation]++
		for _, protection := range result.BotProtections {
			protectionCounts[protection.Type]++
		}

		// Best entry points: accessible and high scoring, in result order
		if result.Accessible && result.ScrapeLikelihoodScore >= bestEntryPointMinScore &&
			len(summary.BestEntryPoints) < topListSize {
			summary.BestEntryPoints = append(summary.BestEntryPoints, result.URL)
		}
	}

	if summary.Accessible > 0 {
		summary.AverageScore = float64(accessibleScoreTotal) / float64(summary.Accessible)
	}

	summary.TopBotProtections = topProtections(protectionCounts)
	return summary
}

// topProtections ranks detected protection types by frequency, ties broken
// by name for deterministic output
func topProtections(counts map[models.ProtectionType]int) []models.ProtectionTypeCount {
	ranked := make([]models.ProtectionTypeCount, 0, len(counts))
	for protectionType, count := range counts {
		ranked = append(ranked, models.ProtectionTypeCount{Type: protectionType, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Type < ranked[j].Type
	})
	if len(ranked) > topListSize {
		ranked = ranked[:topListSize]
	}
	return ranked
}
