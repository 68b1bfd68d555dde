// Package schemas embeds the JSON Schemas that validate user-authored files.
package schemas

import _ "embed"

// ScriptSchemaJSON is the JSON Schema for script YAML files.
//
//go:embed script.schema.json
var ScriptSchemaJSON string
