package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ksysoev/omnidex-crawl/pkg/core"
)

// Service is the subset of core.Service the transport dispatches into.
type Service interface {
	IndexPages(ctx context.Context, urls []string, forceRefresh bool) (*core.IndexPagesResult, error)
	IndexDomain(ctx context.Context, baseURL, sitemapURL string, maxPages int, forceRefresh bool) (*core.IndexDomainResult, error)
	List(ctx context.Context, domain string) (*core.ListResult, error)
	Remove(ctx context.Context, urls []string, domain string) (*core.RemoveResult, error)
	Search(ctx context.Context, query string) (*core.SearchToolResult, error)
}

const (
	toolIndexPages  = "mw_kb_index_pages"
	toolIndexDomain = "mw_kb_index_domain"
	toolList        = "mw_kb_list"
	toolRemove      = "mw_kb_remove"
	toolSearch      = "mw_kb_search"
)

// Handlers builds the five tool-call handlers dispatching into svc.
func Handlers(svc Service) map[string]Handler {
	return map[string]Handler{
		toolIndexPages:  handleIndexPages(svc),
		toolIndexDomain: handleIndexDomain(svc),
		toolList:        handleList(svc),
		toolRemove:      handleRemove(svc),
		toolSearch:      handleSearch(svc),
	}
}

type indexPagesParams struct {
	URLs         []string `json:"urls"`
	ForceRefresh bool     `json:"force_refresh"`
}

func handleIndexPages(svc Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p indexPagesParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("invalid params: %s", err)}
		}

		if len(p.URLs) == 0 {
			return nil, &ValidationError{Msg: "urls is required"}
		}

		return svc.IndexPages(ctx, p.URLs, p.ForceRefresh)
	}
}

type indexDomainParams struct {
	SitemapURL   string `json:"sitemap_url"`
	BaseURL      string `json:"base_url"`
	MaxPages     int    `json:"max_pages"`
	ForceRefresh bool   `json:"force_refresh"`
}

func handleIndexDomain(svc Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p indexDomainParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("invalid params: %s", err)}
		}

		if p.BaseURL == "" {
			return nil, &ValidationError{Msg: "base_url is required"}
		}

		return svc.IndexDomain(ctx, p.BaseURL, p.SitemapURL, p.MaxPages, p.ForceRefresh)
	}
}

type listParams struct {
	Domain string `json:"domain"`
}

func handleList(svc Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p listParams
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, &ValidationError{Msg: fmt.Sprintf("invalid params: %s", err)}
			}
		}

		return svc.List(ctx, p.Domain)
	}
}

type removeParams struct {
	URLs   []string `json:"urls"`
	Domain string   `json:"domain"`
}

func handleRemove(svc Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p removeParams
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, &ValidationError{Msg: fmt.Sprintf("invalid params: %s", err)}
			}
		}

		if len(p.URLs) == 0 && p.Domain == "" {
			return nil, &ValidationError{Msg: "urls or domain is required"}
		}

		return svc.Remove(ctx, p.URLs, p.Domain)
	}
}

type searchParams struct {
	Query string `json:"query"`
}

func handleSearch(svc Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p searchParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("invalid params: %s", err)}
		}

		if p.Query == "" {
			return nil, &ValidationError{Msg: "query is required"}
		}

		return svc.Search(ctx, p.Query)
	}
}
