package analysis

import "github.com/invopop/jsonschema"

// GenerateSchema reflects a strict JSON schema for T, suitable for the
// Request.Schema field. Call once per type at package init.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
