// pkg/registry/schema.go
package registry

// Value sources for a filter field.
const (
	SourceStatic     = "static"     // values listed in the registry
	SourceCollection = "collection" // values loaded from a remote collection (id -> name)
	SourceDerived    = "derived"    // values computed from loaded data
)

// FilterRegistry describes the discrete filters each listing offers.
type FilterRegistry struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Fields      []FilterField `json:"fields"`
}

// FilterField is one filter of one listing.
type FilterField struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Collection  string   `json:"collection"`
	Source      string   `json:"source"`
	AllLabel    string   `json:"allLabel,omitempty"`
	Values      []string `json:"values,omitempty"`
	// ValueCollection names the collection supplying values when Source is
	// SourceCollection.
	ValueCollection string `json:"valueCollection,omitempty"`
}

// registrySchema is the JSON schema a registry file must satisfy.
const registrySchema = `{
	"type": "object",
	"required": ["version", "fields"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"fields": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["key", "displayName", "collection", "source"],
				"properties": {
					"key": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
					"displayName": {"type": "string", "minLength": 1},
					"collection": {"type": "string", "minLength": 1},
					"source": {"enum": ["static", "collection", "derived"]},
					"allLabel": {"type": "string"},
					"values": {"type": "array", "items": {"type": "string", "minLength": 1}},
					"valueCollection": {"type": "string"}
				}
			}
		}
	}
}`
