package oracle

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

var (
	candidateListSchema = buildSchema(true)
	candidateSchema     = buildSchema(false)
)

// buildSchema describes the reply the oracle must produce: an array of
// candidates for a generation request, a single object for a relocation.
func buildSchema(list bool) json.RawMessage {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	item := reflector.ReflectFromType(reflect.TypeOf(Candidate{}))
	item.Version = ""
	item.Title = "Location"
	item.Description = "A real-world place where a target can be hidden."

	root := item
	if list {
		root = &jsonschema.Schema{
			Type:        "array",
			Title:       "Locations",
			Description: "Places spread across the requested range.",
			Items:       item,
		}
	}

	data, err := json.Marshal(root)
	if err != nil {
		// Reflecting a fixed struct cannot fail at runtime.
		panic(err)
	}
	return data
}
