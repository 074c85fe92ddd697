// Package score converts an AnalysisResult into a 0-100 scrapability score.
// Calculate is deterministic and side-effect-free: identical inputs always
// yield identical output.
package score

import (
	"scrapecheck/pkg/models"
)

const (
	baseScore = 100

	noResponsePenalty  = 60
	jsRequiredPenalty  = 15
	redirectPenaltyPer = 5
	redirectPenaltyCap = 15
	botPenaltyCap      = 50.0
)

// exactStatusPenalties take priority over the first-digit buckets
var exactStatusPenalties = map[int]int{
	400: 25,
	401: 35,
	403: 40,
	404: 20,
	405: 25,
	429: 45,
	500: 30,
	502: 30,
	503: 35,
}

// botTypePenalties are the per-type base penalties before confidence scaling
var botTypePenalties = map[models.ProtectionType]float64{
	models.ProtectionCloudflare:     30,
	models.ProtectionDataDome:       30,
	models.ProtectionAkamai:         25,
	models.ProtectionImperva:        25,
	models.ProtectionPerimeterX:     25,
	models.ProtectionRecaptcha:      20,
	models.ProtectionHcaptcha:       20,
	models.ProtectionFingerprinting: 15,
	models.ProtectionUnknown:        15,
	models.ProtectionRateLimiting:   10,
}

var confidenceScale = map[models.Confidence]float64{
	models.ConfidenceLow:    0.5,
	models.ConfidenceMedium: 0.75,
	models.ConfidenceHigh:   1.0,
}

// Calculate maps an analysis result to its score breakdown
func Calculate(result *models.AnalysisResult) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{BaseScore: baseScore}

	breakdown.StatusPenalty = statusPenalty(result.Status)
	breakdown.RedirectPenalty = redirectPenalty(len(result.Redirects))
	if result.JSRequired {
		breakdown.JSPenalty = jsRequiredPenalty
	}
	breakdown.BotProtectionPenalty = botPenalty(result.BotProtections)

	total := float64(breakdown.StatusPenalty) +
		float64(breakdown.RedirectPenalty) +
		float64(breakdown.JSPenalty) +
		breakdown.BotProtectionPenalty

	final := baseScore - int(total)
	if final < 0 {
		final = 0
	}
	if final > baseScore {
		final = baseScore
	}
	breakdown.FinalScore = final
	breakdown.Recommendation = Recommendation(final)

	return breakdown
}

func statusPenalty(status int) int {
	if status == 0 {
		return noResponsePenalty
	}
	if penalty, ok := exactStatusPenalties[status]; ok {
		return penalty
	}
	switch status / 100 {
	case 2:
		return 0
	case 3:
		return 5
	case 4:
		return 25
	case 5:
		return 30
	default:
		return 0
	}
}

func redirectPenalty(count int) int {
	penalty := count * redirectPenaltyPer
	if penalty > redirectPenaltyCap {
		penalty = redirectPenaltyCap
	}
	return penalty
}

// botPenalty sums the per-type penalties scaled by confidence, capped at 50.
// BotProtections holds at most one entry per type, so no type counts twice.
func botPenalty(protections []models.BotProtection) float64 {
	var total float64
	for _, protection := range protections {
		base, ok := botTypePenalties[protection.Type]
		if !ok {
			base = botTypePenalties[models.ProtectionUnknown]
		}
		scale, ok := confidenceScale[protection.Confidence]
		if !ok {
			scale = confidenceScale[models.ConfidenceMedium]
		}
		total += base * scale
	}
	if total > botPenaltyCap {
		total = botPenaltyCap
	}
	return total
}

// Recommendation returns the human-readable guidance for a score
func Recommendation(finalScore int) string {
	switch {
	case finalScore >= 85:
		return "Excellent scrapability. The page responds cleanly and can be fetched with simple HTTP requests."
	case finalScore >= 70:
		return "Good scrapability. Minor friction detected; a well-behaved HTTP client with sane headers should work."
	case finalScore >= 50:
		return "Moderate scrapability. Expect some defenses; use realistic headers, pacing, and retry handling."
	case finalScore >= 30:
		return "Difficult to scrape. Significant protections or rendering requirements detected; a headless browser and careful pacing are likely needed."
	default:
		return "Very difficult to scrape. The site actively blocks automated clients; scraping is unlikely to succeed without specialized tooling."
	}
}

// Band maps a score to the audit recommendation enum. Inaccessible results
// are classified as blocked by the caller regardless of score.
func Band(finalScore int) models.Recommendation {
	switch {
	case finalScore >= 85:
		return models.RecommendBestEntryPoint
	case finalScore >= 70:
		return models.RecommendGood
	case finalScore >= 50:
		return models.RecommendModerate
	case finalScore >= 30:
		return models.RecommendChallenging
	default:
		return models.RecommendBlocked
	}
}
