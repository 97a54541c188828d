package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const minimalSpecYAML = `openapi: "3.0.3"
info:
  title: Petstore API
  description: A sample API for pets
  version: "1.0.0"
paths:
  /pets:
    get:
      summary: List all pets
      description: Returns a list of all pets in the store
      operationId: listPets
      tags:
        - pets
      responses:
        "200":
          description: A list of pets
tags:
  - name: pets
    description: Everything about your Pets
`

const minimalSpecJSON = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Petstore API",
    "description": "A sample API for pets",
    "version": "1.0.0"
  },
  "paths": {
    "/pets": {
      "get": {
        "summary": "List all pets",
        "responses": {
          "200": {
            "description": "A list of pets"
          }
        }
      }
    }
  }
}`

func TestProcessor_ExtractTitle(t *testing.T) {
	p := New()

	assert.Equal(t, "Petstore API", p.ExtractTitle([]byte(minimalSpecYAML)))
	assert.Equal(t, "Petstore API", p.ExtractTitle([]byte(minimalSpecJSON)))
	assert.Empty(t, p.ExtractTitle([]byte("not a spec")))
}

func TestProcessor_ToPlainText(t *testing.T) {
	p := New()

	text := p.ToPlainText([]byte(minimalSpecYAML))

	assert.Contains(t, text, "Petstore API")
	assert.Contains(t, text, "A sample API for pets")
	assert.Contains(t, text, "/pets")
	assert.Contains(t, text, "List all pets")
	assert.Contains(t, text, "Everything about your Pets")
}

func TestProcessor_ToPlainText_InvalidContentIsEmpty(t *testing.T) {
	p := New()

	assert.Empty(t, p.ToPlainText([]byte("not a spec")))
}

func TestProcessor_IsOpenAPI(t *testing.T) {
	p := New()

	assert.True(t, p.IsOpenAPI([]byte(minimalSpecYAML)))
	assert.True(t, p.IsOpenAPI([]byte(minimalSpecJSON)))
	assert.False(t, p.IsOpenAPI([]byte("not a spec")))
}
