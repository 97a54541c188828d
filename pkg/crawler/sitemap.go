package crawler

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/ksysoev/omnidex-crawl/pkg/fetch"
)

// sitemapURLSet is the subset of the sitemaps.org 0.9 schema this crawler
// consumes: a flat list of <url><loc> entries. Nested sitemap indexes are
// not followed.
type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// parseSitemap fetches and parses a sitemap, returning only <loc> entries
// whose host matches domain. Any failure — fetch error, malformed XML, or an
// empty result — yields an empty slice so the caller can fall back to
// seeding with the base URL alone.
func parseSitemap(ctx context.Context, client *fetch.Client, sitemapURL, domain string) []string {
	res, err := client.Get(ctx, sitemapURL)
	if err != nil {
		return nil
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(res.Body, &set); err != nil {
		return nil
	}

	urls := make([]string, 0, len(set.URLs))

	for _, entry := range set.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}

		u, err := url.Parse(loc)
		if err != nil {
			continue
		}

		if !strings.EqualFold(u.Hostname(), domain) {
			continue
		}

		urls = append(urls, loc)
	}

	return urls
}
