//
//  Copyright © Manetu Inc. All rights reserved.
//

package moduleyaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
namespace: auth
imports: [billing]
policies:
  is-admin: ["=", doc/role, "admin"]
  min-level:
    description: requires a minimum account level
    params:
      min:
        default: 1
    expr: [">=", doc/level, param/min]
`

func TestDecodeBareAndLongForm(t *testing.T) {
	f, err := Decode([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "auth", f.Namespace)
	assert.Equal(t, []string{"billing"}, f.Imports)
	require.Contains(t, f.Policies, "is-admin")
	require.Contains(t, f.Policies, "min-level")

	bare := f.Policies["is-admin"]
	assert.Empty(t, bare.Description)
	assert.Nil(t, bare.Params)
	assert.NotNil(t, bare.Expr)

	long := f.Policies["min-level"]
	assert.Equal(t, "requires a minimum account level", long.Description)
	require.Contains(t, long.Params, "min")
	assert.True(t, long.Params["min"].HasDefault)
}

func TestDecodeMissingNamespace(t *testing.T) {
	_, err := Decode([]byte(`imports: []`))
	require.Error(t, err)
}

func TestDecodeInvalidYAML(t *testing.T) {
	_, err := Decode([]byte(`: not yaml`))
	require.Error(t, err)
}
