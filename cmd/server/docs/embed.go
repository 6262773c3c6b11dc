// Package docs embeds the OpenAPI description of the server.
package docs

import (
	_ "embed"
	"encoding/json"
)

//go:embed swagger.json
var swaggerJSON []byte

// SwaggerSpec is the part of swagger.json the index page reads.
type SwaggerSpec struct {
	Paths map[string]map[string]PathInfo `json:"paths"`
}

// PathInfo contains information about an API endpoint
type PathInfo struct {
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Parameters  []any          `json:"parameters"`
	Responses   map[string]any `json:"responses"`
}

// SwaggerJSON returns the raw document served at /swagger/doc.json.
func SwaggerJSON() []byte {
	return swaggerJSON
}

// GetSwaggerSpec returns the parsed swagger specification
func GetSwaggerSpec() (*SwaggerSpec, error) {
	var spec SwaggerSpec
	if err := json.Unmarshal(swaggerJSON, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}
