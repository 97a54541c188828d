// Package openapi extracts indexable plain text and a title from OpenAPI
// specifications (YAML or JSON) discovered by the crawler alongside a
// documentation site's HTML pages.
package openapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Processor turns a raw OpenAPI spec into the title/content pair a Page
// record needs. It carries no state of its own.
type Processor struct{}

// New creates a new Processor.
func New() *Processor {
	return &Processor{}
}

// ExtractTitle returns the API title from the OpenAPI info section, or an
// empty string if the spec cannot be parsed or has no title.
func (p *Processor) ExtractTitle(src []byte) string {
	spec, err := parseSpec(src)
	if err != nil {
		return ""
	}

	if spec.Info != nil && spec.Info.Title != "" {
		return spec.Info.Title
	}

	return ""
}

// ToPlainText extracts searchable plain text from an OpenAPI spec: the API
// title, description, tag names and descriptions, and every path's
// operation summaries/descriptions.
func (p *Processor) ToPlainText(src []byte) string {
	spec, err := parseSpec(src)
	if err != nil {
		return ""
	}

	var buf bytes.Buffer

	if spec.Info != nil {
		if spec.Info.Title != "" {
			buf.WriteString(spec.Info.Title)
			buf.WriteByte('\n')
		}

		if spec.Info.Description != "" {
			buf.WriteString(spec.Info.Description)
			buf.WriteByte('\n')
		}
	}

	for _, tag := range spec.Tags {
		if tag == nil {
			continue
		}

		buf.WriteString(tag.Name)
		buf.WriteByte('\n')

		if tag.Description != "" {
			buf.WriteString(tag.Description)
			buf.WriteByte('\n')
		}
	}

	if spec.Paths != nil {
		for path, pathItem := range spec.Paths.Map() {
			buf.WriteString(path)
			buf.WriteByte('\n')

			if pathItem == nil {
				continue
			}

			for _, op := range collectOperations(pathItem) {
				if op.Summary != "" {
					buf.WriteString(op.Summary)
					buf.WriteByte('\n')
				}

				if op.Description != "" {
					buf.WriteString(op.Description)
					buf.WriteByte('\n')
				}
			}
		}
	}

	return strings.TrimSpace(buf.String())
}

// IsOpenAPI reports whether src parses as a loadable OpenAPI document. The
// crawler uses this to decide whether to route a fetched resource through
// this processor instead of the HTML normalizer.
func (p *Processor) IsOpenAPI(src []byte) bool {
	_, err := parseSpec(src)
	return err == nil
}

// parseSpec parses an OpenAPI spec from raw bytes (YAML or JSON). External
// references are disallowed and semantic validation is skipped: malformed
// but structurally valid specs still index, since this is a best-effort
// content extractor rather than a spec validator.
func parseSpec(src []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	spec, err := loader.LoadFromData(src)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}

	return spec, nil
}

func collectOperations(item *openapi3.PathItem) []*openapi3.Operation {
	ops := make([]*openapi3.Operation, 0, 8) //nolint:mnd // 8 HTTP methods

	for _, op := range []*openapi3.Operation{
		item.Get,
		item.Post,
		item.Put,
		item.Delete,
		item.Patch,
		item.Head,
		item.Options,
		item.Trace,
	} {
		if op != nil {
			ops = append(ops, op)
		}
	}

	return ops
}
