package paramflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapecheck/pkg/models"
)

func TestAnalyze_EmptyChain(t *testing.T) {
	result := Analyze(nil)
	assert.False(t, result.HasUTMParams)
	assert.True(t, result.UTMPreserved)
	assert.Empty(t, result.Steps)
	assert.Empty(t, result.Issues)
}

func TestAnalyze_SingleURLNoRedirects(t *testing.T) {
	result := Analyze([]string{"https://example.com/page?utm_source=email&ref=home"})
	assert.True(t, result.HasUTMParams)
	assert.True(t, result.UTMPreserved)
	require.Len(t, result.Steps, 1)
	assert.Empty(t, result.Steps[0].Changes, "step 0 has nothing to diff against")
	assert.Equal(t, "email", result.InitialParams["utm_source"])
	assert.Equal(t, result.InitialParams, result.FinalParams)
}

func TestAnalyze_UTMLostMidChain(t *testing.T) {
	chain := []string{
		"https://a.com?utm_source=x",
		"https://b.com?utm_source=x",
		"https://c.com",
	}
	result := Analyze(chain)

	assert.True(t, result.HasUTMParams)
	assert.False(t, result.UTMPreserved)
	assert.Equal(t, 3, result.UTMLostAt, "loss happens entering step 3 (1-indexed)")
	assert.Contains(t, result.ParamsRemoved, "utm_source")

	require.Len(t, result.Steps, 3)
	assert.Equal(t, chain[0], result.Steps[0].URL)
	assert.Equal(t, chain[2], result.Steps[2].URL)
	assert.Equal(t, models.ParamPreserved, result.Steps[1].Changes["utm_source"])
	assert.Equal(t, models.ParamRemoved, result.Steps[2].Changes["utm_source"])

	require.NotEmpty(t, result.Issues)
	assert.Equal(t, models.SeverityError, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].AffectedParams, "utm_source")
}

func TestAnalyze_PerStepClassification(t *testing.T) {
	chain := []string{
		"https://a.com?keep=1&drop=1&change=old",
		"https://b.com?keep=1&change=new&fresh=1",
	}
	result := Analyze(chain)

	require.Len(t, result.Steps, 2)
	changes := result.Steps[1].Changes
	assert.Equal(t, models.ParamPreserved, changes["keep"])
	assert.Equal(t, models.ParamRemoved, changes["drop"])
	assert.Equal(t, models.ParamModified, changes["change"])
	assert.Equal(t, models.ParamAdded, changes["fresh"])

	assert.Equal(t, []string{"fresh"}, result.ParamsAdded)
	assert.Equal(t, []string{"drop"}, result.ParamsRemoved)
	assert.Equal(t, []string{"change"}, result.ParamsModified)
}

func TestAnalyze_OverallDiffIsFirstVersusLast(t *testing.T) {
	// A parameter dropped mid-chain but restored at the end counts as
	// preserved overall: the first-vs-last diff does not union per-step diffs
	chain := []string{
		"https://a.com?x=1",
		"https://b.com",
		"https://c.com?x=1",
	}
	result := Analyze(chain)
	assert.Empty(t, result.ParamsRemoved)
	assert.Empty(t, result.ParamsAdded)
	assert.Empty(t, result.ParamsModified)
}

func TestAnalyze_IssueOrdering(t *testing.T) {
	chain := []string{
		"https://a.com?utm_source=x&utm_medium=email&gclid=abc",
		"https://b.com?utm_medium=social&session=123",
	}
	result := Analyze(chain)

	require.Len(t, result.Issues, 4)
	assert.Equal(t, models.SeverityError, result.Issues[0].Severity) // utm_source lost
	assert.Contains(t, result.Issues[0].AffectedParams, "utm_source")
	assert.Equal(t, models.SeverityWarning, result.Issues[1].Severity) // utm_medium changed
	assert.Contains(t, result.Issues[1].AffectedParams, "utm_medium")
	assert.Equal(t, models.SeverityWarning, result.Issues[2].Severity) // gclid lost
	assert.Contains(t, result.Issues[2].AffectedParams, "gclid")
	assert.Equal(t, models.SeverityInfo, result.Issues[3].Severity) // session added
	assert.Contains(t, result.Issues[3].AffectedParams, "session")
}

func TestAreUTMParamsPreserved(t *testing.T) {
	tests := []struct {
		name     string
		initial  map[string]string
		final    map[string]string
		expected bool
	}{
		{
			name:     "value changed",
			initial:  map[string]string{"utm_source": "google"},
			final:    map[string]string{"utm_source": "facebook"},
			expected: false,
		},
		{
			name:     "nothing to preserve",
			initial:  map[string]string{},
			final:    map[string]string{"foo": "bar"},
			expected: true,
		},
		{
			name:     "identical",
			initial:  map[string]string{"utm_source": "google", "utm_campaign": "spring"},
			final:    map[string]string{"utm_source": "google", "utm_campaign": "spring"},
			expected: true,
		},
		{
			name:     "key lost",
			initial:  map[string]string{"utm_term": "shoes"},
			final:    map[string]string{},
			expected: false,
		},
		{
			name:     "non-utm changes ignored",
			initial:  map[string]string{"utm_id": "9", "ref": "a"},
			final:    map[string]string{"utm_id": "9", "ref": "b"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AreUTMParamsPreserved(tt.initial, tt.final))
		})
	}
}

func TestParseAndFormatRoundTrip(t *testing.T) {
	rawURL := "https://example.com/page?utm_source=news&utm_medium=email&ref=footer&id=42"

	params := ParseURLParams(rawURL)
	formatted := FormatURLWithParams(rawURL)

	require.Len(t, formatted, len(params))
	for _, param := range formatted {
		value, present := params[param.Key]
		assert.True(t, present, "formatted key %q missing from parsed map", param.Key)
		assert.Equal(t, value, param.Value)
		assert.Equal(t, IsUTMKey(param.Key), param.IsUTM)
	}

	utmFlags := map[string]bool{}
	for _, param := range formatted {
		utmFlags[param.Key] = param.IsUTM
	}
	assert.True(t, utmFlags["utm_source"])
	assert.True(t, utmFlags["utm_medium"])
	assert.False(t, utmFlags["ref"])
	assert.False(t, utmFlags["id"])
}

func TestParseURLParams_Unparseable(t *testing.T) {
	params := ParseURLParams("http://%zz invalid")
	assert.Empty(t, params)
}

func TestIsUTMKey_CanonicalSet(t *testing.T) {
	for _, key := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term", "utm_id"} {
		assert.True(t, IsUTMKey(key), key)
	}
	assert.False(t, IsUTMKey("utm_custom"))
	assert.False(t, IsUTMKey("gclid"))
}
