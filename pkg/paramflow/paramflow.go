// Package paramflow tracks query parameters across a redirect chain, with
// special attention to UTM attribution keys. All functions are pure.
package paramflow

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"scrapecheck/pkg/models"
)

// utmKeys are the six canonical marketing-attribution query keys
var utmKeys = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_content",
	"utm_term",
	"utm_id",
}

// clickIDKeys are non-UTM tracking parameters whose loss is worth a warning
var clickIDKeys = []string{
	"fbclid",
	"gclid",
	"msclkid",
	"ttclid",
	"twclid",
	"li_fat_id",
}

// IsUTMKey reports whether key is one of the canonical UTM keys
func IsUTMKey(key string) bool {
	for _, k := range utmKeys {
		if key == k {
			return true
		}
	}
	return false
}

func isClickIDKey(key string) bool {
	for _, k := range clickIDKeys {
		if key == k {
			return true
		}
	}
	return false
}

// ParseURLParams extracts a URL's query string into a flat map. Repeated
// keys keep the first value. Unparseable URLs yield an empty map.
func ParseURLParams(rawURL string) map[string]string {
	params := make(map[string]string)
	u, err := url.Parse(rawURL)
	if err != nil {
		return params
	}
	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// Param is one key/value pair with its UTM flag, for presentation
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	IsUTM bool   `json:"is_utm"`
}

// FormatURLWithParams lists a URL's query parameters in sorted key order
// with each key flagged as UTM or not
func FormatURLWithParams(rawURL string) []Param {
	params := ParseURLParams(rawURL)
	keys := sortedKeys(params)
	out := make([]Param, 0, len(keys))
	for _, key := range keys {
		out = append(out, Param{Key: key, Value: params[key], IsUTM: IsUTMKey(key)})
	}
	return out
}

// AreUTMParamsPreserved reports whether every UTM key in initial survives in
// final with an identical value. Vacuously true when initial carries no UTM
// keys.
func AreUTMParamsPreserved(initial, final map[string]string) bool {
	for _, key := range utmKeys {
		initialValue, present := initial[key]
		if !present {
			continue
		}
		finalValue, stillPresent := final[key]
		if !stillPresent || finalValue != initialValue {
			return false
		}
	}
	return true
}

// Analyze tracks parameters across chain, where chain[0] is the original
// request URL and the last element is the terminal URL. An empty chain
// yields an empty result with UTMPreserved=true.
func Analyze(chain []string) *models.ParameterFlowResult {
	result := &models.ParameterFlowResult{
		UTMPreserved:  true,
		InitialParams: map[string]string{},
		FinalParams:   map[string]string{},
	}
	if len(chain) == 0 {
		return result
	}

	// Per-step states: step 0 has no changes, each later step diffs against
	// its immediate predecessor
	steps := make([]models.ParamStep, 0, len(chain))
	for n, stepURL := range chain {
		step := models.ParamStep{URL: stepURL, Params: ParseURLParams(stepURL)}
		if n > 0 {
			step.Changes = diffStep(steps[n-1].Params, step.Params)
		}
		steps = append(steps, step)
	}
	result.Steps = steps

	initial := steps[0].Params
	final := steps[len(steps)-1].Params
	result.InitialParams = initial
	result.FinalParams = final

	for _, key := range utmKeys {
		if _, ok := initial[key]; ok {
			result.HasUTMParams = true
			break
		}
	}

	// First step at which a previously-present UTM key disappears (1-indexed)
	for n := 1; n < len(steps); n++ {
		if utmLost(steps[n-1].Params, steps[n].Params) {
			result.UTMLostAt = n + 1
			break
		}
	}

	result.UTMPreserved = AreUTMParamsPreserved(initial, final)

	// Overall sets diff step 0 directly against the last step
	added, removed, modified := diffOverall(initial, final)
	result.ParamsAdded = added
	result.ParamsRemoved = removed
	result.ParamsModified = modified

	result.Issues = buildIssues(initial, final, result.UTMLostAt)
	return result
}

// diffStep classifies every key present in either map as exactly one of
// preserved/added/removed/modified
func diffStep(prev, curr map[string]string) map[string]models.ParamChange {
	changes := make(map[string]models.ParamChange)
	for key, prevValue := range prev {
		currValue, present := curr[key]
		switch {
		case !present:
			changes[key] = models.ParamRemoved
		case currValue == prevValue:
			changes[key] = models.ParamPreserved
		default:
			changes[key] = models.ParamModified
		}
	}
	for key := range curr {
		if _, present := prev[key]; !present {
			changes[key] = models.ParamAdded
		}
	}
	return changes
}

func diffOverall(initial, final map[string]string) (added, removed, modified []string) {
	for key, initialValue := range initial {
		finalValue, present := final[key]
		switch {
		case !present:
			removed = append(removed, key)
		case finalValue != initialValue:
			modified = append(modified, key)
		}
	}
	for key := range final {
		if _, present := initial[key]; !present {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(modified)
	return added, removed, modified
}

// utmLost reports whether any UTM key present in prev is absent in curr
func utmLost(prev, curr map[string]string) bool {
	for _, key := range utmKeys {
		if _, was := prev[key]; was {
			if _, still := curr[key]; !still {
				return true
			}
		}
	}
	return false
}

// buildIssues derives findings in fixed order: lost-UTM error, changed-UTM
// warning, lost-click-id warning, added-param info
func buildIssues(initial, final map[string]string, utmLostAt int) []models.FlowIssue {
	var issues []models.FlowIssue

	var lostUTM, changedUTM []string
	for _, key := range utmKeys {
		initialValue, present := initial[key]
		if !present {
			continue
		}
		finalValue, stillPresent := final[key]
		if !stillPresent {
			lostUTM = append(lostUTM, key)
		} else if finalValue != initialValue {
			changedUTM = append(changedUTM, key)
		}
	}
	if len(lostUTM) > 0 {
		issues = append(issues, models.FlowIssue{
			Severity:       models.SeverityError,
			Message:        fmt.Sprintf("UTM parameters lost during redirect: %s", strings.Join(lostUTM, ", ")),
			AffectedParams: lostUTM,
			Step:           utmLostAt,
		})
	}
	if len(changedUTM) > 0 {
		issues = append(issues, models.FlowIssue{
			Severity:       models.SeverityWarning,
			Message:        fmt.Sprintf("UTM parameter values changed during redirect: %s", strings.Join(changedUTM, ", ")),
			AffectedParams: changedUTM,
		})
	}

	var lostClickIDs []string
	for _, key := range clickIDKeys {
		if _, present := initial[key]; present {
			if _, stillPresent := final[key]; !stillPresent {
				lostClickIDs = append(lostClickIDs, key)
			}
		}
	}
	if len(lostClickIDs) > 0 {
		issues = append(issues, models.FlowIssue{
			Severity:       models.SeverityWarning,
			Message:        fmt.Sprintf("Tracking parameters lost during redirect: %s", strings.Join(lostClickIDs, ", ")),
			AffectedParams: lostClickIDs,
		})
	}

	var addedParams []string
	for key := range final {
		if _, present := initial[key]; !present {
			addedParams = append(addedParams, key)
		}
	}
	sort.Strings(addedParams)
	if len(addedParams) > 0 {
		issues = append(issues, models.FlowIssue{
			Severity:       models.SeverityInfo,
			Message:        fmt.Sprintf("Parameters added during redirect: %s", strings.Join(addedParams, ", ")),
			AffectedParams: addedParams,
		})
	}

	return issues
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
