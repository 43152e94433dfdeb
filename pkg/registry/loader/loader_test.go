//
//  Copyright © Manetu Inc. All rights reserved.
//

package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manetu/polix/pkg/moduleyaml"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/parser"
	"github.com/manetu/polix/pkg/registry"
)

func decode(t *testing.T, src string) *moduleyaml.File {
	t.Helper()
	f, err := moduleyaml.Decode([]byte(src))
	require.NoError(t, err)
	return f
}

func newParser() *parser.Parser {
	return parser.New(operator.New())
}

func TestLoadModulesTopologicalOrder(t *testing.T) {
	billing := decode(t, `
namespace: billing
policies:
  active: ["=", doc/status, "active"]
`)
	auth := decode(t, `
namespace: auth
imports: [billing]
policies:
  is-admin: ["=", doc/role, "admin"]
`)
	out, err := LoadModules(registry.New(), newParser(), []Source{{File: auth}, {File: billing}})
	require.NoError(t, err)
	_, ok := out.ResolveNamespace("billing")
	assert.True(t, ok)
	_, ok = out.ResolveNamespace("auth")
	assert.True(t, ok)
}

func TestLoadModulesMissingImport(t *testing.T) {
	auth := decode(t, `
namespace: auth
imports: [nonexistent]
policies:
  is-admin: ["=", doc/role, "admin"]
`)
	_, err := LoadModules(registry.New(), newParser(), []Source{{File: auth}})
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrMissingImports, lerr.Kind)
}

func TestLoadModulesCircularImport(t *testing.T) {
	a := decode(t, `
namespace: a
imports: [b]
policies:
  p: ["=", doc/x, 1]
`)
	b := decode(t, `
namespace: b
imports: [a]
policies:
  p: ["=", doc/x, 1]
`)
	_, err := LoadModules(registry.New(), newParser(), []Source{{File: a}, {File: b}})
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrCircularImport, lerr.Kind)
}

func TestLoadModulesDuplicateNamespace(t *testing.T) {
	a1 := decode(t, `
namespace: dup
policies:
  p: ["=", doc/x, 1]
`)
	a2 := decode(t, `
namespace: dup
policies:
  q: ["=", doc/y, 2]
`)
	_, err := LoadModules(registry.New(), newParser(), []Source{{File: a1}, {File: a2}})
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrDuplicateNS, lerr.Kind)
}

func TestLoadModulesDoesNotMutateBaseOnFailure(t *testing.T) {
	base := registry.New()
	billing := decode(t, `
namespace: billing
policies:
  active: ["=", doc/status, "active"]
`)
	_, err := LoadModules(base, newParser(), []Source{{File: billing}})
	require.NoError(t, err)

	bad := decode(t, `
namespace: broken
imports: [nonexistent]
policies:
  p: ["=", doc/x, 1]
`)
	_, err = LoadModules(base, newParser(), []Source{{File: bad}})
	require.Error(t, err)
	_, ok := base.ResolveNamespace("broken")
	assert.False(t, ok)
}

func TestLoadModulesAgainstExistingRegistry(t *testing.T) {
	base := registry.New()
	billing := decode(t, `
namespace: billing
policies:
  active: ["=", doc/status, "active"]
`)
	base, err := LoadModules(base, newParser(), []Source{{File: billing}})
	require.NoError(t, err)

	auth := decode(t, `
namespace: auth
imports: [billing]
policies:
  is-admin: ["=", doc/role, "admin"]
`)
	out, err := LoadModules(base, newParser(), []Source{{File: auth}})
	require.NoError(t, err)
	_, ok := out.ResolveNamespace("auth")
	assert.True(t, ok)
}
