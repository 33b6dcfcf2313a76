// Package api holds the OpenAPI description of the /api/v1 surface.
package api

import _ "embed"

// Spec is the OpenAPI 3 document requests are validated against.
//
//go:embed openapi.yaml
var Spec []byte
