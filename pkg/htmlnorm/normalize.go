package htmlnorm

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// mainRegionSelectors are tried in order; the first match becomes the main
// region. If none match, the whole body is used.
var mainRegionSelectors = []string{"main", "article", ".content", ".docs-content", "[role=\"main\"]"}

// chromeSelectors are stripped from within the main region before text
// extraction.
var chromeSelectors = []string{"nav", "footer", "aside", ".sidebar", ".nav", ".toc"}

// sanitizer is applied to extracted plain text as a defense-in-depth pass:
// goquery's text extraction should never leave raw markup behind, but this
// makes the "no raw HTML tags" invariant enforced rather than assumed.
var sanitizer = bluemonday.StrictPolicy()

// Normalize parses an HTML document fetched from pageURL and produces the
// normalized Page fields: title, breadcrumb, content and intra-domain links.
func Normalize(pageURL string, html io.Reader) (core.Page, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return core.Page{}, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, iframe").Remove()

	title := extractTitle(doc, pageURL)
	breadcrumb := ExtractBreadcrumb(doc, pageURL)
	content := extractContent(doc)
	links := extractLinks(doc, pageURL)

	domain := Domain(pageURL)

	return core.Page{
		URL:        pageURL,
		Domain:     domain,
		Title:      title,
		Breadcrumb: breadcrumb,
		Content:    content,
		Links:      links,
	}, nil
}

func extractTitle(doc *goquery.Document, pageURL string) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}

	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}

	path := strings.Trim(pathOf(pageURL), "/")
	segments := strings.Split(path, "/")

	return segments[len(segments)-1]
}

func mainRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range mainRegionSelectors {
		region := doc.Find(sel).First()
		if region.Length() > 0 {
			return region
		}
	}

	return doc.Find("body").First()
}

func extractContent(doc *goquery.Document) string {
	region := mainRegion(doc).Clone()

	region.Find(strings.Join(chromeSelectors, ", ")).Remove()

	tagCodeBlocks(region)

	text := blockText(region)
	text = collapseWhitespace(text)

	return sanitizer.Sanitize(text)
}

// tagCodeBlocks rewrites <pre><code> blocks in place, prefixing the detected
// language as a fenced-code header so the plain-text rendering preserves
// language identifiers for lexical matching, mirroring the code-fencing the
// original crawler's legacy extractor performed.
func tagCodeBlocks(region *goquery.Selection) {
	region.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		raw := pre.Text()
		if strings.TrimSpace(raw) == "" {
			return
		}

		lang := "text"
		if lexer := lexers.Analyse(raw); lexer != nil {
			if cfg := lexer.Config(); cfg != nil && cfg.Name != "" {
				lang = strings.ToLower(cfg.Name)
			}
		}

		fenced := fmt.Sprintf("```%s\n%s\n```", lang, strings.TrimRight(raw, "\n"))
		pre.SetText(fenced)
	})
}

// blockText renders text with newlines inserted at block-element boundaries.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder

	var walk func(*goquery.Selection)

	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				b.WriteString(c.Text())
				return
			}

			if isBlockElement(goquery.NodeName(c)) {
				b.WriteString("\n")
				walk(c)
				b.WriteString("\n")

				return
			}

			walk(c)
		})
	}

	walk(sel)

	return b.String()
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "header": true, "table": true,
	"tr": true, "li": true, "ul": true, "ol": true, "pre": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "br": true,
}

func isBlockElement(tag string) bool {
	return blockElements[tag]
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")

	out := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		fields := strings.Fields(trimmed)
		out = append(out, strings.Join(fields, " "))
	}

	return strings.Join(out, "\n")
}

func extractLinks(doc *goquery.Document, pageURL string) []string {
	seen := map[string]bool{}

	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}

		resolved, ok := ResolveAndCanonicalize(pageURL, href)
		if !ok {
			return
		}

		if !SameDomain(pageURL, resolved) {
			return
		}

		if seen[resolved] {
			return
		}

		seen[resolved] = true

		links = append(links, resolved)
	})

	return links
}
