package domain

// VariableInfo describes one variable's layout as declared in a structure
// dump, optionally enriched with descriptive metadata.
type VariableInfo struct {
	DataType   string   `json:"data_type"`
	Dimensions []string `json:"dimensions"`
	LongName   string   `json:"long_name,omitempty"`
	Units      string   `json:"units,omitempty"`
}

// GlobalAttributes is the attribute-tree key holding dataset-level
// attributes, as named by the portal's NetCDF exports.
const GlobalAttributes = "NC_GLOBAL"

// Attributes is one level of the attribute tree. Values are string scalars,
// numeric lists ([]float64), or nested Attributes for per-variable
// containers.
type Attributes map[string]any

// Container returns the nested attribute container under name, or nil.
func (a Attributes) Container(name string) Attributes {
	if nested, ok := a[name].(Attributes); ok {
		return nested
	}
	return nil
}

// DatasetMetadata is the assembled description of one dataset family:
// descriptor facets and fields, plus the structural layout read from one
// representative granule.
type DatasetMetadata struct {
	Fields     FacetSet                `json:"fields"`
	Dimensions map[string]int          `json:"dimensions"`
	Variables  map[string]VariableInfo `json:"variable_infos"`
	Attributes Attributes              `json:"attributes,omitempty"`
}
