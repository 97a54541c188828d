package core

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ContentType names how a fetched resource's body should be interpreted
// before it is turned into a Page.
type ContentType string

const (
	ContentTypeHTML    ContentType = "html"
	ContentTypeOpenAPI ContentType = "openapi"
)

// openAPIExtensions lists file extensions commonly used for OpenAPI specs.
var openAPIExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// DetectContentType determines how a crawled resource should be processed
// based on its path/URL and body. It uses the file extension as a fast
// pre-filter and then inspects the body for OpenAPI-specific markers (the
// "openapi" or "swagger" top-level keys). Anything that doesn't look like an
// OpenAPI document is treated as HTML — the crawler's default and only other
// recognized content type.
func DetectContentType(path string, content []byte) ContentType {
	ext := strings.ToLower(filepath.Ext(path))

	if !openAPIExtensions[ext] {
		return ContentTypeHTML
	}

	if looksLikeOpenAPI(content, ext) {
		return ContentTypeOpenAPI
	}

	return ContentTypeHTML
}

// looksLikeOpenAPI checks whether the content contains an "openapi" (OAS 3.x)
// or "swagger" (OAS 2.0) top-level key. It supports both JSON and YAML formats.
func looksLikeOpenAPI(content []byte, ext string) bool {
	if ext == ".json" || (len(content) > 0 && content[0] == '{') {
		return looksLikeOpenAPIJSON(content)
	}

	return looksLikeOpenAPIYAML(content)
}

func looksLikeOpenAPIJSON(content []byte) bool {
	var doc map[string]json.RawMessage

	if err := json.Unmarshal(content, &doc); err != nil {
		return false
	}

	_, hasOpenAPI := doc["openapi"]
	_, hasSwagger := doc["swagger"]

	return hasOpenAPI || hasSwagger
}

func looksLikeOpenAPIYAML(content []byte) bool {
	var doc map[string]any

	if err := yaml.Unmarshal(content, &doc); err != nil {
		return false
	}

	_, hasOpenAPI := doc["openapi"]
	_, hasSwagger := doc["swagger"]

	return hasOpenAPI || hasSwagger
}
