package config

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v6"
	schemareflector "github.com/swaggest/jsonschema-go"

	ext_config "github.com/confsync/confsync/config"
)

var rootSchema *jsonschema.Schema

func init() {
	js, err := jsonschema.UnmarshalJSON(bytes.NewReader(ext_config.Schema()))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource("schema.json", js); err != nil {
		panic(err)
	}

	rootSchema, err = compiler.Compile("schema.json")
	if err != nil {
		panic(err)
	}
}

func ReflectSchema() ([]byte, error) {
	reflector := schemareflector.Reflector{}

	s, err := reflector.Reflect(Config{}, schemareflector.InlineRefs)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(s, "", "  ")
}

// Add-on supervisors sometimes render numeric options as strings, so both
// forms are accepted for the polling interval.
func (Seconds) PrepareJSONSchema(schema *schemareflector.Schema) error {
	schema.Type = nil
	schema.AnyOf = []schemareflector.SchemaOrBool{
		(&schemareflector.Schema{}).WithType(schemareflector.Integer.Type()).WithMinimum(1).ToSchemaOrBool(),
		(&schemareflector.Schema{}).WithType(schemareflector.String.Type()).WithPattern(`^[1-9][0-9]*$`).ToSchemaOrBool(),
	}
	return nil
}
