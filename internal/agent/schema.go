package agent

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// schemaReflector inlines every definition so each entrypoint carries a
// self-contained schema. Fields without omitempty are listed as required and
// unknown properties are rejected, matching how inputs are decoded.
var schemaReflector = &jsonschema.Reflector{
	Anonymous:      true,
	DoNotReference: true,
	ExpandedStruct: true,
}

// schemaOf returns the JSON Schema of an operation input type.
func schemaOf(t reflect.Type) *jsonschema.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s := schemaReflector.ReflectFromType(t)
	s.Version = ""
	return s
}
