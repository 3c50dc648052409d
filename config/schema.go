//go:generate go run ../build/gen-config-schema.go schema.json

// Package config holds the JSON schema of the confsync configuration file.
package config

import (
	_ "embed"
)

//go:embed "schema.json"
var schema []byte

func Schema() []byte {
	return schema
}
