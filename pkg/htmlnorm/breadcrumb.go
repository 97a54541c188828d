package htmlnorm

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return u.Path
}

const breadcrumbSep = " > "

// headingLikeSelector lists the tag names treated as sidebar group labels
// when walking ancestors for strategy 2.
var headingLikeSelector = "h3, h4, h5, strong, span"

// sidebarSelector finds the sidebar navigation container that scopes
// strategy 2's active-item search and ancestor walk.
var sidebarSelector = `nav.sidebar, .sidebar-nav, aside nav, [class*="sidebar"], [class*="nav-tree"]`

// activeItemSelector finds the currently-active sidebar navigation item.
var activeItemSelector = `a.active, a[aria-current="page"], li.active a, .selected a, [class*="active"] a`

// ExtractBreadcrumb runs the three breadcrumb strategies in order and
// returns the first non-empty result.
func ExtractBreadcrumb(doc *goquery.Document, pageURL string) string {
	if bc := breadcrumbFromElement(doc); bc != "" {
		return bc
	}

	if bc := breadcrumbFromSidebar(doc); bc != "" {
		return bc
	}

	return breadcrumbFromURL(pageURL)
}

// breadcrumbFromElement implements strategy 1: a dedicated breadcrumb
// element, joining its anchor texts and appending a current-page span.
func breadcrumbFromElement(doc *goquery.Document) string {
	sel := doc.Find(`nav[aria-label="breadcrumb"], .breadcrumb, [class*="breadcrumb"]`).First()
	if sel.Length() == 0 {
		return ""
	}

	var parts []string

	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	sel.Find(`span[aria-current="page"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, breadcrumbSep)
}

// breadcrumbFromSidebar implements strategy 2: find the sidebar navigation
// container, locate the currently-active item within it, and walk ancestors
// up to (but not including) the sidebar itself, collecting the first
// heading-like previous sibling at each level.
func breadcrumbFromSidebar(doc *goquery.Document) string {
	sidebar := doc.Find(sidebarSelector).First()
	if sidebar.Length() == 0 {
		return ""
	}

	active := sidebar.Find(activeItemSelector).First()
	if active.Length() == 0 {
		return ""
	}

	leaf := strings.TrimSpace(active.Text())
	if leaf == "" {
		return ""
	}

	sidebarNode := sidebar.Get(0)

	var parts []string

	for el := active.Parent(); el.Length() > 0 && el.Get(0) != sidebarNode; el = el.Parent() {
		if prev := previousHeadingLikeSibling(el); prev != "" && !contains(parts, prev) {
			parts = append([]string{prev}, parts...)
		}
	}

	parts = append(parts, leaf)

	if len(parts) < 2 {
		return ""
	}

	return strings.Join(parts, breadcrumbSep)
}

func previousHeadingLikeSibling(el *goquery.Selection) string {
	for sib := el.Prev(); sib.Length() > 0; sib = sib.Prev() {
		tag := goquery.NodeName(sib)
		if tag == "h3" || tag == "h4" || tag == "h5" || tag == "strong" || tag == "span" {
			text := strings.TrimSpace(sib.Text())
			if text != "" {
				return text
			}
		}
	}

	return ""
}

func contains(parts []string, s string) bool {
	for _, p := range parts {
		if p == s {
			return true
		}
	}

	return false
}

// BreadcrumbFromURL exposes strategy 3 (title-case each path segment, join
// with " > ") for callers that never parse HTML, such as the crawler's
// OpenAPI content path.
func BreadcrumbFromURL(pageURL string) string {
	return breadcrumbFromURL(pageURL)
}

// breadcrumbFromURL implements strategy 3: title-case each path segment and
// join with " > ".
func breadcrumbFromURL(pageURL string) string {
	path := pathOf(pageURL)

	segments := strings.Split(strings.Trim(path, "/"), "/")

	parts := make([]string, 0, len(segments))

	for _, seg := range segments {
		if seg == "" {
			continue
		}

		parts = append(parts, titleCaseSegment(seg))
	}

	return strings.Join(parts, breadcrumbSep)
}

func titleCaseSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "-", " ")
	seg = strings.ReplaceAll(seg, "_", " ")

	words := strings.Fields(seg)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}
