// Package dap implements the array-access protocol: the structure-dump and
// attribute-dump text formats, the plain-text coordinate preamble, and
// binary sub-array retrieval.
package dap

import (
	"regexp"
	"strconv"

	"github.com/climkit/ccidex/internal/domain"
)

var (
	ddsDeclRe = regexp.MustCompile(`([A-Za-z0-9_]+) ([A-Za-z0-9_]+)((?:\[[A-Za-z_][A-Za-z0-9_]* = \d{1,7}\])*);`)
	ddsDimRe  = regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_]*) = (\d{1,7})\]`)
)

// ParseDDS reads a structure dump, one declaration per line, and returns the
// dimension map and per-variable type/dimension info. A dimension keeps its
// first-seen size; repeated declarations of a variable are ignored.
func ParseDDS(text string) (map[string]int, map[string]domain.VariableInfo) {
	dimensions := map[string]int{}
	variables := map[string]domain.VariableInfo{}

	for _, decl := range ddsDeclRe.FindAllStringSubmatch(text, -1) {
		dataType, name, brackets := decl[1], decl[2], decl[3]
		if _, ok := variables[name]; ok {
			continue
		}
		var dimNames []string
		for _, dim := range ddsDimRe.FindAllStringSubmatch(brackets, -1) {
			dimName := dim[1]
			dimNames = append(dimNames, dimName)
			if _, ok := dimensions[dimName]; !ok {
				size, err := strconv.Atoi(dim[2])
				if err != nil {
					continue
				}
				dimensions[dimName] = size
			}
		}
		variables[name] = domain.VariableInfo{
			DataType:   dataType,
			Dimensions: dimNames,
		}
	}

	return dimensions, variables
}
