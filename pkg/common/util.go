//
//  Copyright © Manetu Inc. All rights reserved.
//

package common

import (
	"encoding/json"
	"fmt"

	"github.com/mohae/deepcopy"
)

// PrettyPrint outputs a readable JSON representation of the provided data structure.
func PrettyPrint(data interface{}) {
	p, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		fmt.Println(err)
	} else {
		fmt.Printf("%s \n", p)
	}
}

// Clone produces a deep copy of a JSON-representable value (maps, slices,
// scalars) via the [github.com/mohae/deepcopy] package. Used where a
// document or policy parameter map must be mutated without disturbing the
// caller's original.
func Clone(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return deepcopy.Copy(v)
}
