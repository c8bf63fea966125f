package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Sample page</title>
  <script>var tracking = "do not translate";</script>
  <link rel="preload" as="script" href="/app.js">
  <link rel="modulepreload" href="/mod.js">
  <link rel="manifest" href="/manifest.json">
  <link rel="stylesheet" href="/site.css">
  <style>body { color: red; }</style>
</head>
<body data-reactroot="" onload="init()">
  <div id="root" data-react-helmet="true">
    <h1 onclick="alert(1)">Welcome home</h1>
    <p>Hello <b>world</b> again</p>
    <noscript>Enable JavaScript</noscript>
    <pre>keep this code</pre>
    <p><code>fmt.Println</code> prints text</p>
    <ul><li>First item</li><li>Second item</li></ul>
    <p>https://example.com/path</p>
    <p>someone@example.com</p>
    <p>12345</p>
    <p>...!!</p>
    <p>   </p>
    <iframe src="https://ads.example.com/frame"></iframe>
  </div>
</body>
</html>`

func TestSanitize(t *testing.T) {
	doc, err := ParseString(samplePage)
	require.NoError(t, err)

	Sanitize(doc)

	assert.Equal(t, 0, doc.Find("script").Length())
	assert.Equal(t, 0, doc.Find("noscript").Length())
	assert.Equal(t, 0, doc.Find(`link[rel="preload"]`).Length())
	assert.Equal(t, 0, doc.Find(`link[rel="modulepreload"]`).Length())
	assert.Equal(t, 0, doc.Find(`link[rel="manifest"]`).Length())
	assert.Equal(t, 1, doc.Find(`link[rel="stylesheet"]`).Length())
	assert.Equal(t, 1, doc.Find("style").Length())

	_, hasOnload := doc.Find("body").Attr("onload")
	assert.False(t, hasOnload)
	_, hasOnclick := doc.Find("h1").Attr("onclick")
	assert.False(t, hasOnclick)
	_, hasReactRoot := doc.Find("body").Attr("data-reactroot")
	assert.False(t, hasReactRoot)
	_, hasHelmet := doc.Find("#root").Attr("data-react-helmet")
	assert.False(t, hasHelmet)
	assert.Equal(t, 1, doc.Find("#root").Length(), "element carrying react attributes is kept")

	iframe := doc.Find("iframe")
	_, hasSrc := iframe.Attr("src")
	assert.False(t, hasSrc)
	disabled, _ := iframe.Attr("data-disabled")
	assert.Equal(t, "true", disabled)
}

func TestSanitizeIdempotent(t *testing.T) {
	doc, err := ParseString(samplePage)
	require.NoError(t, err)

	Sanitize(doc)
	first, err := Render(doc)
	require.NoError(t, err)

	Sanitize(doc)
	second, err := Render(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSanitizePreloadStyleKept(t *testing.T) {
	doc, err := ParseString(`<html><head><link rel="preload" as="style" href="/a.css"><link rel="PRELOAD" as="SCRIPT" href="/b.js"></head><body></body></html>`)
	require.NoError(t, err)

	Sanitize(doc)

	links := doc.Find("link")
	require.Equal(t, 1, links.Length())
	href, _ := links.Attr("href")
	assert.Equal(t, "/a.css", href)
}

func TestRenderRoundTrip(t *testing.T) {
	doc, err := ParseString(`<!DOCTYPE html><html><head></head><body><p>Hi there</p></body></html>`)
	require.NoError(t, err)

	out, err := Render(doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<p>Hi there</p>")
}

func TestPlainText(t *testing.T) {
	doc, err := ParseString(`<html><head><title>Ignored title</title></head><body>
		<script>var x = 1;</script>
		<style>p { color: blue; }</style>
		<h1>Big&nbsp;title</h1>
		<p>First   line<br>second &amp; third</p>
	</body></html>`)
	require.NoError(t, err)

	text := PlainText(doc)
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color")
	assert.NotContains(t, text, "Ignored title")
	assert.Contains(t, text, "First line second & third")
	assert.NotContains(t, text, "  ")
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown(`<h1>Title</h1><p>Some <strong>bold</strong> text</p>`, "")
	require.NoError(t, err)
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "**bold**")
}
