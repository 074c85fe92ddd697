package analyzer

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const serverRenderedPage = `<html><body>
<h1>Product catalogue</h1>
<p>This page lists every product we sell, with full descriptions rendered on
the server. There is plenty of visible text here, well past any sparse-content
threshold, and nothing on the page hints at client-side hydration at all.</p>
<script src="/analytics.js"></script>
</body></html>`

func TestDetectJSRequired_ServerRenderedPage(t *testing.T) {
	required, signal := DetectJSRequired(parseDoc(t, serverRenderedPage), serverRenderedPage)
	assert.False(t, required)
	assert.Empty(t, signal)
}

func TestDetectJSRequired_NoscriptBlock(t *testing.T) {
	html := `<html><body>` + strings.Repeat("<p>server text</p>", 30) + `
<noscript>This application cannot run without scripting support enabled in
your browser, please turn it on and reload the page to continue.</noscript>
</body></html>`
	required, signal := DetectJSRequired(parseDoc(t, html), html)
	assert.True(t, required)
	assert.Equal(t, "noscript_block", signal)
}

func TestDetectJSRequired_NoscriptPhrase(t *testing.T) {
	// Short noscript text, but carrying a telltale phrase
	html := `<html><body>` + strings.Repeat("<p>server text</p>", 30) + `
<noscript>Please enable JavaScript.</noscript></body></html>`
	required, signal := DetectJSRequired(parseDoc(t, html), html)
	assert.True(t, required)
	assert.Equal(t, "noscript_phrase", signal)
}

func TestDetectJSRequired_EmptyAppRoot(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"react root", `<html><body><div id="root"></div></body></html>`},
		{"vue app", `<html><body><div id="app"></div></body></html>`},
		{"next root", `<html><body><div id="__next"></div></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			required, signal := DetectJSRequired(parseDoc(t, tt.html), tt.html)
			assert.True(t, required)
			assert.Equal(t, "empty_app_root", signal)
		})
	}
}

func TestDetectJSRequired_PopulatedAppRootNotFlagged(t *testing.T) {
	// An app-root container that already holds server-rendered content, on a
	// page with plenty of visible text, is not a JS signal
	html := `<html><body><div id="root">
<h1>Welcome</h1>
<p>All of this content was rendered on the server before delivery. The
container is an app root by id, but it is far from empty, and the body text
comfortably exceeds the sparse-content threshold used by the heuristics.</p>
</div></body></html>`
	required, _ := DetectJSRequired(parseDoc(t, html), html)
	assert.False(t, required)
}

func TestDetectJSRequired_SPAFingerprints(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
	}{
		{"next hydration payload", `<script id="__NEXT_DATA__" type="application/json">{}</script>`},
		{"nuxt state", `<script>window.__NUXT__={};</script>`},
		{"dynamic import", `<script>import("/chunks/main.js");</script>`},
		{"fetch usage", `<script>fetch("/api/items").then(render);</script>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><body>` + strings.Repeat("<p>filler text for the body</p>", 20) + tt.snippet + `</body></html>`
			required, signal := DetectJSRequired(parseDoc(t, html), html)
			assert.True(t, required)
			assert.Contains(t, signal, "spa_fingerprint:")
		})
	}
}

func TestDetectJSRequired_ScriptCount(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>` + strings.Repeat("<p>long server rendered text</p>", 20))
	for i := 0; i < scriptCountThreshold+1; i++ {
		b.WriteString(`<script src="/bundle.js"></script>`)
	}
	b.WriteString(`</body></html>`)

	html := b.String()
	required, signal := DetectJSRequired(parseDoc(t, html), html)
	assert.True(t, required)
	assert.Equal(t, "script_count", signal)
}

func TestDetectJSRequired_NilDocumentUsesRawChecksOnly(t *testing.T) {
	required, signal := DetectJSRequired(nil, `{"state": "__NEXT_DATA__"}`)
	assert.True(t, required)
	assert.Contains(t, signal, "spa_fingerprint:")

	required, _ = DetectJSRequired(nil, "")
	assert.False(t, required)
}
