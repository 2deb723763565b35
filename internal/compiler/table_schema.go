package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/ifcpset/internal/ir"
)

// tableSchema closes table files over the fields the compiler reads, so a
// misspelled field is a CUE error with a position rather than a silently
// ignored key.
var tableSchema = fmt.Sprintf(`
#Kind: %s

#Container: "Single" | "Enumerated" | "List" | "Reference"

#Entry: {
	name:             string & !=""
	kind?:            #Kind
	container?:       #Container
	enum?:            string
	source?:          string
	localized?:       [string]: string
	builtin?:         string
	calculator?:      string
	calculator_only?: bool
	output_name?:     string
	method?:          string
	versions?:        [...string]
	exclude_views?:   [...string]
}

#Set: {
	name:                    string
	kind?:                   "property" | "quantity"
	entity_types:            [...string]
	object_type?:            string
	sub_element_index?:      int & >=0
	versions?:               [...string]
	exclude_views?:          [...string]
	description_calculator?: string
	entries:                 [...#Entry]
}

#Table: {
	enums?: [string]: [...string]
	sets: [...#Set]
}
`, kindDisjunction())

func kindDisjunction() string {
	kinds := ir.AllMeasureKinds()
	quoted := make([]string, len(kinds))
	for i, k := range kinds {
		quoted[i] = fmt.Sprintf("%q", k.String())
	}
	return strings.Join(quoted, " | ")
}
