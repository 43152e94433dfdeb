//
//  Copyright © Manetu Inc. All rights reserved.
//

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/residual"
)

// Fingerprint hashes a constraint-set together with the registry
// version it was normalized against into a stable cache key. Two
// constraint-sets with identical per-path constraint lists (in any
// path order — the keys are sorted before hashing) and the same
// registry version always fingerprint identically.
func Fingerprint(cs *residual.Residual, registryVersion uint64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "v%d|", registryVersion)

	paths := cs.Paths()
	keys := make([]string, len(paths))
	byKey := make(map[string]ast.Path, len(paths))
	for i, p := range paths {
		k := p.String()
		keys[i] = k
		byKey[k] = p
	}
	sort.Strings(keys)
	for _, k := range keys {
		atoms, _ := cs.At(byKey[k])
		fmt.Fprintf(&b, "path(%s)=", k)
		for _, a := range atoms {
			fmt.Fprintf(&b, "[%s %v conflict=%v]", a.Constraint.Op, a.Constraint.Value, a.IsConflict())
		}
		b.WriteByte(';')
	}

	ck := append([]residual.CrossKeyConstraint{}, cs.CrossKey()...)
	sort.Slice(ck, func(i, j int) bool {
		return ck[i].Left.String()+ck[i].Op+ck[i].Right.String() < ck[j].Left.String()+ck[j].Op+ck[j].Right.String()
	})
	for _, c := range ck {
		fmt.Fprintf(&b, "crosskey(%s,%s,%s);", c.Left, c.Op, c.Right)
	}

	for _, c := range cs.Complexes() {
		fmt.Fprintf(&b, "complex(%s);", c.Reason)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
